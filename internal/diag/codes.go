package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Grammar structure
	GramInfo                Code = 1000
	GramDecode              Code = 1001
	GramMissingStart        Code = 1002
	GramEmptyRule           Code = 1003
	GramUnresolvedSymbol    Code = 1004
	GramNonterminating      Code = 1005
	GramUnreachable         Code = 1006
	GramUnused              Code = 1007
	GramMalformedProduction Code = 1008

	// Generation
	GenInfo       Code = 2000
	GenStagnation Code = 2001
	GenTreeBudget Code = 2002
	GenCovered    Code = 2003

	// I/O
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:             "Unknown error",
		GramInfo:                "Grammar information",
		GramDecode:              "Grammar could not be decoded",
		GramMissingStart:        "Start symbol is not defined",
		GramEmptyRule:           "Nonterminal has no alternatives",
		GramUnresolvedSymbol:    "Reference to undefined nonterminal",
		GramNonterminating:      "Nonterminal never derives a finite string",
		GramUnreachable:         "Nonterminal is unreachable from the start symbol",
		GramUnused:              "Nonterminal is defined but never referenced",
		GramMalformedProduction: "Production has more than one terminal run",
		GenInfo:                 "Generation information",
		GenStagnation:           "Coverage stagnated before reaching the goal",
		GenTreeBudget:           "Derivation tree exceeded its size budget",
		GenCovered:              "Coverage goal reached",
		IOLoadFileError:         "I/O load file error",
		IOWriteFileError:        "I/O write file error",
		ObsInfo:                 "Observability information",
		ObsTimings:              "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("GRM%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
