package service

import (
	"sort"
	"strings"
)

// The seven clause types that have requirements in the knowledge base.
// All other predicted types map onto one of these (or none) for matching.
var regulatoryTypes = map[string]bool{
	"Data Processing":                true,
	"Sub-processor Authorization":    true,
	"Data Subject Rights":            true,
	"Breach Notification":            true,
	"Data Transfer":                  true,
	"Security Safeguards":            true,
	"Permitted Uses and Disclosures": true,
}

// typeMapping maps contract-specific clause types to regulatory types.
// Metadata types map to the empty string: they carry no compliance
// obligation and are excluded from scoring.
var typeMapping = map[string]string{
	"Document Name":   "",
	"Parties":         "",
	"Agreement Date":  "",
	"Effective Date":  "",
	"Expiration Date": "",
	"Definitions":     "",

	"Governing Law":               "Data Transfer",
	"Renewal Term":                "Data Processing",
	"Termination for Convenience": "Data Processing",
	"Termination":                 "Data Processing",
	"Payment Terms":               "Data Processing",
	"Post-Termination Services":   "Data Processing",
	"General":                     "Data Processing",
	"Miscellaneous":               "Data Processing",

	"Non-Compete":              "Permitted Uses and Disclosures",
	"Exclusivity":              "Permitted Uses and Disclosures",
	"No-Solicit of Customers":  "Permitted Uses and Disclosures",
	"No-Solicit of Employees":  "Permitted Uses and Disclosures",
	"Non-Disparagement":        "Permitted Uses and Disclosures",

	"Change of Control": "Sub-processor Authorization",
	"Anti-Assignment":   "Sub-processor Authorization",

	"IP Ownership Assignment": "Data Subject Rights",
	"License Grant":           "Data Subject Rights",

	"Audit Rights":      "Security Safeguards",
	"Insurance":         "Security Safeguards",
	"Warranty Duration": "Security Safeguards",
	"Confidentiality":   "Security Safeguards",

	"Uncapped Liability": "Breach Notification",
	"Cap on Liability":   "Breach Notification",
	"Liquidated Damages": "Breach Notification",
	"Indemnification":    "Breach Notification",
}

// clauseKeywords drive the rule-based classification
var clauseKeywords = map[string][]string{
	"Data Processing": {
		"process", "processing", "processor", "controller", "instructions",
		"documented instructions", "personal data processing", "data controller",
		"data processor", "processing activities", "lawful basis",
	},
	"Sub-processor Authorization": {
		"sub-processor", "subprocessor", "sub processor", "authorization", "prior written",
		"notification", "object", "third party processor", "engage third party",
		"downstream processor", "subcontractor",
	},
	"Data Subject Rights": {
		"data subject", "rights", "access", "rectification", "erasure",
		"portability", "restriction", "objection", "right to", "individual rights",
		"access request", "deletion request", "right to be forgotten",
	},
	"Breach Notification": {
		"breach", "notification", "notify", "security breach", "incident",
		"data breach", "unauthorized access", "breach response", "incident response",
		"72 hours", "without undue delay", "security incident",
	},
	"Data Transfer": {
		"transfer", "cross-border", "third country", "international",
		"standard contractual clauses", "adequacy decision", "scc", "sccs",
		"international transfer", "outside", "data export", "transfer mechanism",
	},
	"Security Safeguards": {
		"security", "safeguards", "measures", "technical", "organizational",
		"encryption", "pseudonymization", "confidentiality", "integrity",
		"availability", "security measures", "technical and organizational measures",
		"access controls", "authentication", "backup",
	},
	"Permitted Uses and Disclosures": {
		"permitted", "allowed", "disclosure", "use", "purpose",
		"authorized use", "permitted disclosure", "lawful purpose",
		"legitimate interest", "specific purpose", "purpose limitation",
	},

	"Document Name": {
		"agreement", "contract", "titled", "entitled", "named",
		"this agreement", "this contract", "hereinafter referred to",
	},
	"Parties": {
		"party", "parties", "between", "hereinafter",
		"referred to as", "company", "corporation", "entity",
		"seller", "buyer", "vendor", "customer",
	},
	"Effective Date": {
		"effective date", "commencement date", "start date",
		"becomes effective", "shall commence", "beginning on",
	},
	"Expiration Date": {
		"expiration", "expires", "term ends", "termination date",
		"end date", "concludes", "final date", "expiry",
	},
	"Governing Law": {
		"governing law", "jurisdiction", "laws of", "governed by",
		"subject to the laws", "applicable law", "state law",
		"federal law", "legal jurisdiction",
	},
	"Renewal Term": {
		"renewal", "renew", "automatic renewal", "extension",
		"successive terms", "additional term", "automatically extend", "rollover",
	},
	"Termination for Convenience": {
		"terminate", "termination", "convenience", "without cause",
		"at will", "for any reason", "sole discretion",
		"upon notice", "may terminate",
	},
	"Non-Compete": {
		"non-compete", "non compete", "compete", "competing",
		"competitive", "prohibition", "restricted from",
		"shall not engage", "refraining from",
	},
	"Exclusivity": {
		"exclusive", "exclusively", "sole", "exclusivity",
		"exclusive rights", "exclusive dealing",
		"shall not sell", "shall not license",
	},
	"Change of Control": {
		"change of control", "merger", "acquisition", "sale of",
		"transfer of ownership", "controlling interest",
		"change in ownership", "successor",
	},
	"Anti-Assignment": {
		"assignment", "assign", "consent required",
		"prior written consent", "not assignable", "no assignment",
		"binding upon", "successors",
	},
	"IP Ownership Assignment": {
		"intellectual property", "ownership", "belong to", "property of", "title",
		"copyright", "patent", "trademark", "trade secret",
	},
	"License Grant": {
		"license", "grant", "hereby grants", "licensed",
		"permission", "right to use", "licensed rights", "scope of license",
	},
	"Audit Rights": {
		"audit", "inspect", "examination", "review",
		"right to audit", "books and records", "compliance audit",
		"verify", "access to records",
	},
	"Uncapped Liability": {
		"unlimited liability", "uncapped", "no limit",
		"without limitation", "full liability", "all damages", "no cap",
	},
	"Cap on Liability": {
		"cap", "limited to", "not exceed", "maximum",
		"limitation of liability", "aggregate liability",
		"capped at", "up to",
	},
	"Liquidated Damages": {
		"liquidated damages", "penalty", "predetermined",
		"fixed amount", "damages in the amount",
		"termination fee", "breakup fee",
	},
	"Warranty Duration": {
		"warranty", "warranted", "guarantee", "duration",
		"defect-free", "warranty period", "guaranteed for",
	},
	"Insurance": {
		"insurance", "insure", "coverage", "policy",
		"insured", "liability insurance", "maintain insurance",
		"proof of insurance", "certificate of insurance",
	},
}

// phraseWeights give specific legal phrases more influence than generic
// terms. Unlisted keywords weigh 1.0.
var phraseWeights = map[string]float64{
	"technical and organizational measures": 3.5,
	"standard contractual clauses":          3.5,
	"liquidated damages":                    3.5,
	"change of control":                     3.0,
	"intellectual property":                 3.0,

	"documented instructions": 2.5,
	"data subject rights":     2.5,
	"security breach":         2.5,
	"prior written consent":   2.5,
	"governing law":           2.5,
	"effective date":          2.5,
	"termination date":        2.5,
	"sub-processor":           2.5,
	"cross-border":            2.5,
	"non-compete":             2.5,
	"audit rights":            2.5,
	"warranty period":         2.5,
	"license grant":           2.0,

	"personal data":   1.5,
	"confidentiality": 1.5,
	"exclusive":       1.5,
	"assignment":      1.5,
	"insurance":       1.5,
	"liability":       1.5,

	"processing":  1.0,
	"security":    1.0,
	"termination": 1.0,
	"agreement":   1.0,
	"party":       1.0,
}

// TypeScore pairs a clause type with its normalized keyword score
type TypeScore struct {
	Type  string
	Score float64
}

// ClassifyClause predicts the clause type of a text using weighted keyword
// matching. It returns the predicted type, a confidence in [0.5, 0.95], and
// the scored alternatives. Texts matching nothing classify as "Other".
func ClassifyClause(text string, topK int) (string, float64, []TypeScore) {
	scores := scoreClauseTypes(text)

	if len(scores) == 0 || scores[0].Score == 0.0 {
		return "Other", 0.5, []TypeScore{{Type: "Other", Score: 0.5}}
	}

	predicted := scores[0].Type
	confidence := scaleConfidence(scores[0].Score)

	if topK > len(scores) {
		topK = len(scores)
	}
	alternatives := make([]TypeScore, 0, topK)
	for _, s := range scores[:topK] {
		alternatives = append(alternatives, TypeScore{Type: s.Type, Score: scaleConfidence(s.Score)})
	}

	return predicted, confidence, alternatives
}

func scoreClauseTypes(text string) []TypeScore {
	textLower := strings.ToLower(text)
	padded := " " + textLower + " "

	scores := make([]TypeScore, 0, len(clauseKeywords))
	for clauseType, keywords := range clauseKeywords {
		total := 0.0
		maxPossible := 0.0

		for _, keyword := range keywords {
			weight := 1.0
			if w, ok := phraseWeights[keyword]; ok {
				weight = w
			}
			maxPossible += weight

			if strings.Contains(textLower, keyword) {
				// Exact word-boundary match counts more than a substring hit
				if strings.Contains(padded, " "+keyword+" ") {
					weight *= 1.5
				}
				total += weight
			}
		}

		normalized := 0.0
		if maxPossible > 0 {
			normalized = total / maxPossible
		}
		scores = append(scores, TypeScore{Type: clauseType, Score: normalized})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Type < scores[j].Type
	})
	return scores
}

// scaleConfidence maps a raw keyword score to the 0.5-0.95 range
func scaleConfidence(raw float64) float64 {
	c := 0.5 + raw*0.45
	if c > 0.95 {
		return 0.95
	}
	return c
}

// RegulatoryType maps a predicted clause type to the regulatory type used
// for requirement matching. It returns ok=false for metadata types that
// carry no compliance obligation.
func RegulatoryType(clauseType string) (string, bool) {
	if regulatoryTypes[clauseType] {
		return clauseType, true
	}

	mapped, found := typeMapping[clauseType]
	if found {
		if mapped == "" {
			return "", false
		}
		return mapped, true
	}

	// Unknown type: pass through and let matching fall back to the
	// whole framework.
	return clauseType, true
}
