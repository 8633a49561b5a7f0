package report

import "github.com/santhosh-tekuri/jsonschema/v5"

// reportSchema checks the fields whose absence makes a response unusable.
// Optional fields are typed loosely here and repaired field by field in Parse.
const reportSchema = `{
  "type": "object",
  "required": ["summary", "risk_score"],
  "properties": {
    "summary":         {"type": "string"},
    "risk_score":      {"type": ["number", "string"]},
    "contract_type":   {},
    "parties":         {},
    "duration":        {},
    "critical_alerts": {},
    "missing_clauses": {}
  }
}`

var compiledSchema = jsonschema.MustCompileString("report.json", reportSchema)
