package fields

// FieldType constrains how a field value is validated and formatted.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeEmail    FieldType = "email"
	TypePhone    FieldType = "phone"
	TypeURL      FieldType = "url"
	TypeCurrency FieldType = "currency"
)

// Section groups fields by the entity they describe.
type Section string

const (
	SectionAffiliate Section = "affiliate"
	SectionContact   Section = "contact"
	SectionPlacement Section = "placement"
)

// Descriptor describes one importable field in the catalog.
type Descriptor struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Section  Section   `json:"section"`
	Order    int       `json:"order"`
}

// DomainFieldID is the catalog id of the one field an import cannot proceed
// without a mapping for.
const DomainFieldID = "domain"

var defaultAffiliateFields = []Descriptor{
	{ID: "domain", Name: "Domain", Type: TypeURL, Required: true, Section: SectionAffiliate, Order: 0},
	{ID: "traffic", Name: "Traffic", Type: TypeNumber, Section: SectionAffiliate, Order: 1},
	{ID: "stage", Name: "Stage", Type: TypeText, Section: SectionAffiliate, Order: 2},
	{ID: "notes", Name: "Notes", Type: TypeText, Section: SectionAffiliate, Order: 3},
}

var defaultContactFields = []Descriptor{
	{ID: "firstName", Name: "First Name", Type: TypeText, Section: SectionContact, Order: 0},
	{ID: "lastName", Name: "Last Name", Type: TypeText, Section: SectionContact, Order: 1},
	{ID: "email", Name: "Email", Type: TypeEmail, Section: SectionContact, Order: 2},
	{ID: "role", Name: "Role", Type: TypeText, Section: SectionContact, Order: 3},
	{ID: "phone", Name: "Phone", Type: TypePhone, Section: SectionContact, Order: 4},
}

var defaultPlacementFields = []Descriptor{
	{ID: "title", Name: "Title", Type: TypeText, Section: SectionPlacement, Order: 0},
	{ID: "type", Name: "Type", Type: TypeText, Section: SectionPlacement, Order: 1},
	{ID: "url", Name: "URL", Type: TypeURL, Section: SectionPlacement, Order: 2},
	{ID: "pricing", Name: "Pricing", Type: TypeCurrency, Section: SectionPlacement, Order: 3},
	{ID: "audienceReach", Name: "Audience Reach", Type: TypeNumber, Section: SectionPlacement, Order: 4},
}

// DefaultFields returns the built-in catalog: affiliate fields, then contact
// fields, then placement fields, each in display order.
func DefaultFields() []Descriptor {
	out := make([]Descriptor, 0, len(defaultAffiliateFields)+len(defaultContactFields)+len(defaultPlacementFields))
	out = append(out, defaultAffiliateFields...)
	out = append(out, defaultContactFields...)
	out = append(out, defaultPlacementFields...)
	return out
}

func isDefaultField(id string) bool {
	for _, f := range DefaultFields() {
		if f.ID == id {
			return true
		}
	}
	return false
}
