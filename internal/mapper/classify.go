package mapper

import (
	"strings"

	"github.com/mottahub/sync-backend/internal/adapter/karbon"
)

// serviceLineRule matches upper-cased title/work-type text against keywords.
// Rules are evaluated in order; the first match wins, so more specific
// entity types (1120-S) must come before their generic prefixes (1120).
type serviceLineRule struct {
	keywords []string
	line     string
}

var serviceLineRules = []serviceLineRule{
	{[]string{"1120-S", "1120S", "S-CORP", "S CORP"}, "1120-S - S-Corporation"},
	{[]string{"1120", "C-CORP", "C CORP", "CORPORATION"}, "1120 - Corporation"},
	{[]string{"1065", "PARTNERSHIP"}, "1065 - Partnership"},
	{[]string{"1041", "TRUST", "ESTATE"}, "1041 - Trust & Estate"},
	{[]string{"990", "NON-PROFIT", "NONPROFIT", "EXEMPT ORG"}, "990 - Non-Profit"},
	{[]string{"1040", "INDIVIDUAL"}, "1040 - Individual"},
	{[]string{"BOOKKEEPING", "WRITE-UP", "WRITE UP"}, "Bookkeeping"},
	{[]string{"PAYROLL", "941", "W-2"}, "Payroll"},
	{[]string{"SALES TAX"}, "Sales Tax"},
	{[]string{"ADVISORY", "CONSULT", "PLANNING"}, "Advisory"},
}

// classifyServiceLine buckets a work item into a firm service line by
// keyword matching against its title and work type. Returns nil when no
// rule matches — never guessed further.
func classifyServiceLine(title, workType *string) *string {
	var text string
	if title != nil {
		text = strings.ToUpper(*title)
	}
	if workType != nil {
		text += " " + strings.ToUpper(*workType)
	}
	if text == "" {
		return nil
	}

	for _, rule := range serviceLineRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				line := rule.line
				return &line
			}
		}
	}
	return nil
}

// Registration-number buckets, in precedence order. Specific categories
// (sales tax) are checked before the generic "tax" bucket so a
// "CA Sales Tax #" entry never lands in tax_number.
type registrationRule struct {
	keywords []string
	column   string
}

var registrationRules = []registrationRule{
	{[]string{"EIN", "FEIN", "FEDERAL EMPLOYER"}, "ein"},
	{[]string{"BUSINESS NUMBER", "BUSINESS NO"}, "business_number"},
	{[]string{"GST"}, "gst_number"},
	{[]string{"SALES TAX", "SALES & USE", "SALES AND USE"}, "sales_tax_number"},
	{[]string{"PAYROLL", "WITHHOLDING"}, "payroll_tax_number"},
	{[]string{"UNEMPLOYMENT", "SUTA", "SUI"}, "unemployment_tax_number"},
	{[]string{"STATE"}, "state_tax_number"},
	{[]string{"TAX"}, "tax_number"},
}

// registrationColumns lists every target column so mapped organization
// records always carry the full set.
var registrationColumns = []string{
	"ein", "business_number", "gst_number", "sales_tax_number",
	"payroll_tax_number", "unemployment_tax_number", "state_tax_number",
	"tax_number",
}

// classifyRegistrations buckets each registration entry into exactly one
// column by case-insensitive substring matching on its free-text Type.
// The first entry matched into a bucket keeps it; entries whose type
// matches no rule are dropped.
func classifyRegistrations(regs []karbon.RegistrationNumber) map[string]any {
	out := make(map[string]any, len(registrationColumns))
	for _, col := range registrationColumns {
		out[col] = nil
	}

	for _, reg := range regs {
		if reg.Type == nil || strings.TrimSpace(reg.RegistrationNumber) == "" {
			continue
		}
		typ := strings.ToUpper(*reg.Type)
		for _, rule := range registrationRules {
			if !matchesAny(typ, rule.keywords) {
				continue
			}
			if out[rule.column] == nil {
				out[rule.column] = reg.RegistrationNumber
			}
			break
		}
	}
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
