package importer

import "strings"

// TemplateFileName is the suggested download name for the template CSV.
const TemplateFileName = "affiliate-profiles-template.csv"

var templateHeaders = []string{
	"Domain",
	"Traffic",
	"Title (Optional)",
	"URL (Optional)",
	"Notes",
	"Stage",
	"Types",
	"Payment",
	"Full Name",
	"First Name",
	"Last Name",
	"Email",
	"Last Contact Date",
	"Role",
}

const templateExampleRow = "example.com,50000,Example Title,https://example.com/page,Some notes,Identified,Blog,PayPal,John Smith,John,Smith,john@example.com,2024-03-01,Marketing Director"

// Template returns the downloadable CSV template: the full header set plus
// one example row.
func Template() string {
	return strings.Join(templateHeaders, ",") + "\n" + templateExampleRow
}
