package report

import (
	"encoding/json"
	"path/filepath"

	"pyscan/internal/app"
	"pyscan/internal/diag"
	"pyscan/internal/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// Stable SARIF rule IDs, one per diagnostic code.
var sarifRuleIDs = map[diag.Code]string{
	diag.CodeUnusedImport:       "PYS001",
	diag.CodeUnusedFunction:     "PYS002",
	diag.CodeUndefinedReference: "PYS003",
	diag.CodeInconsistentIndent: "PYS004",
	diag.CodeImplicitGlobal:     "PYS005",
}

var sarifRuleDescriptions = map[diag.Code]string{
	diag.CodeUnusedImport:       "An imported name is never referenced in the file.",
	diag.CodeUnusedFunction:     "A function or class is defined but never called or used.",
	diag.CodeUndefinedReference: "A name is referenced outside any scope that declares it.",
	diag.CodeInconsistentIndent: "A line's indentation does not align with the file's indent unit.",
	diag.CodeImplicitGlobal:     "A file-level name is read inside a function that later assigns it without a global statement.",
}

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from analysis results.
// File URIs are made relative to projectRoot so reports stay portable.
func GenerateSARIF(projectRoot string, results []app.Result) ([]byte, error) {
	seen := make(map[diag.Code]bool)
	sarifResults := make([]sarifResult, 0)

	for _, res := range results {
		uri := relativeURI(projectRoot, res.Path)
		for _, d := range res.Diagnostics {
			seen[d.Code] = true
			result := sarifResult{
				RuleID:  sarifRuleIDs[d.Code],
				Level:   severityToLevel(d.Severity),
				Message: sarifMessage{Text: d.Path + ": " + d.Message},
			}
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       uri,
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if d.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: d.Line}
			}
			result.Locations = []sarifLocation{loc}
			sarifResults = append(sarifResults, result)
		}
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "pyscan",
						Version: version.Version,
						Rules:   buildSARIFRules(seen),
					},
				},
				Results: sarifResults,
			},
		},
	}

	return json.MarshalIndent(doc, "", "  ")
}

// buildSARIFRules returns only the rules relevant for the given findings,
// in stable rule-ID order.
func buildSARIFRules(seen map[diag.Code]bool) []sarifRule {
	rules := make([]sarifRule, 0, len(seen))
	for _, code := range diag.AllCodes {
		if !seen[code] {
			continue
		}
		rules = append(rules, sarifRule{
			ID:               sarifRuleIDs[code],
			Name:             ruleName(code),
			ShortDescription: sarifMessage{Text: sarifRuleDescriptions[code]},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	return rules
}

func ruleName(code diag.Code) string {
	switch code {
	case diag.CodeUnusedImport:
		return "UnusedImport"
	case diag.CodeUnusedFunction:
		return "UnusedFunctionOrClass"
	case diag.CodeUndefinedReference:
		return "UndefinedOrOutOfScopeReference"
	case diag.CodeInconsistentIndent:
		return "InconsistentIndentation"
	case diag.CodeImplicitGlobal:
		return "ImplicitGlobalUse"
	default:
		return string(code)
	}
}

func severityToLevel(sev diag.Severity) string {
	if sev == diag.SevAdvisory {
		return "note"
	}
	return "warning"
}

// relativeURI converts an absolute file path to a forward-slash relative
// URI anchored at projectRoot. Relative paths pass through unchanged.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
