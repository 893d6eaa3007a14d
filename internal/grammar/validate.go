package grammar

import (
	"fmt"

	"covgram/internal/diag"
)

type validator struct {
	g     *Grammar
	bag   *diag.Bag
	rep   diag.Reporter
	errs  []error
	cost  *costTable
	check ProductionCheck
}

func newValidator(g *Grammar, maxFindings int, check ProductionCheck) *validator {
	bag := diag.NewBag(maxFindings)
	return &validator{g: g, bag: bag, rep: diag.BagReporter{Bag: bag}, check: check}
}

func (v *validator) fail(err error, code diag.Code, loc diag.Location, msg string) *diag.ReportBuilder {
	v.errs = append(v.errs, err)
	return diag.ReportError(v.rep, code, loc, msg)
}

func (v *validator) run() {
	g := v.g
	if _, ok := g.rules[g.start]; !ok {
		v.fail(ErrMissingStart, diag.GramMissingStart, diag.RuleLocation(string(g.start)),
			fmt.Sprintf("start symbol %s is not defined", g.start)).Emit()
	}

	referenced := make(map[Symbol]bool, len(g.rules))
	for _, sym := range g.order {
		prods := g.rules[sym]
		if len(prods) == 0 {
			v.fail(&EmptyRuleError{Symbol: sym}, diag.GramEmptyRule, diag.RuleLocation(string(sym)),
				fmt.Sprintf("%s has no alternatives", sym)).Emit()
			continue
		}
		for i, p := range prods {
			if v.check != nil {
				if err := v.check(sym, i, p); err != nil {
					v.fail(err, diag.GramMalformedProduction, diag.AltLocation(string(sym), i), err.Error()).Emit()
				}
			}
			for _, ref := range p.Nonterminals() {
				referenced[ref] = true
				if _, ok := g.rules[ref]; ok {
					continue
				}
				err := &UnresolvedSymbolError{Symbol: ref, Referrer: sym, Alt: i}
				rb := v.fail(err, diag.GramUnresolvedSymbol, diag.AltLocation(string(sym), i),
					fmt.Sprintf("reference to %s is not defined", ref)).
					WithNote(diag.AltLocation(string(sym), i), fmt.Sprintf("production %q", p.Raw))
				if near, ok := closestSymbol(ref, g.order); ok {
					rb.WithRuleNote(string(near), fmt.Sprintf("did you mean %s?", near))
				}
				rb.Emit()
			}
		}
	}
	if len(v.errs) > 0 {
		return
	}

	v.cost = computeCosts(g.rules)
	for _, sym := range g.order {
		if v.cost.symbol(sym) != Infinite {
			continue
		}
		v.fail(&NonterminatingSymbolError{Symbol: sym}, diag.GramNonterminating, diag.RuleLocation(string(sym)),
			fmt.Sprintf("every alternative of %s recurses without an exit", sym)).Emit()
	}

	reachable := v.reachable()
	for _, sym := range g.order {
		// <empty> may be defined but is never referenced by name.
		if sym == g.start || sym == Empty {
			continue
		}
		if !referenced[sym] {
			diag.ReportWarning(v.rep, diag.GramUnused, diag.RuleLocation(string(sym)),
				fmt.Sprintf("%s is defined but never referenced", sym)).Emit()
			continue
		}
		if !reachable[sym] {
			diag.ReportWarning(v.rep, diag.GramUnreachable, diag.RuleLocation(string(sym)),
				fmt.Sprintf("%s is unreachable from %s", sym, g.start)).Emit()
		}
	}
}

func (v *validator) reachable() map[Symbol]bool {
	seen := map[Symbol]bool{v.g.start: true}
	stack := []Symbol{v.g.start}
	for len(stack) > 0 {
		sym := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range v.g.rules[sym] {
			for _, ref := range p.Nonterminals() {
				if !seen[ref] {
					seen[ref] = true
					stack = append(stack, ref)
				}
			}
		}
	}
	return seen
}
