package aqi

// Category is the health band an AQI value falls into.
type Category string

const (
	CategoryGood               Category = "good"
	CategoryModerate           Category = "moderate"
	CategoryUnhealthySensitive Category = "unhealthy_sensitive"
	CategoryUnhealthy          Category = "unhealthy"
	CategoryVeryUnhealthy      Category = "very_unhealthy"
	CategoryHazardous          Category = "hazardous"
)

// Severity is the display tone derived from a category.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Classification is the result of Classify.
type Classification struct {
	Category Category `json:"category"`
	Tier     int      `json:"tier"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

type band struct {
	upper    int
	category Category
	label    string
	severity Severity
}

// Upper bounds are inclusive; anything above the last one is hazardous.
var bands = []band{
	{50, CategoryGood, "Good", SeveritySuccess},
	{100, CategoryModerate, "Moderate", SeveritySuccess},
	{150, CategoryUnhealthySensitive, "Unhealthy for Sensitive Groups", SeverityWarning},
	{200, CategoryUnhealthy, "Unhealthy", SeverityWarning},
	{300, CategoryVeryUnhealthy, "Very Unhealthy", SeverityDanger},
}

var hazardous = band{category: CategoryHazardous, label: "Hazardous", severity: SeverityDanger}

// Classify maps an AQI value to its category and severity tier (1 = Good,
// 6 = Hazardous). Negative values are treated as 0.
func Classify(value int) Classification {
	if value < 0 {
		value = 0
	}
	for i, b := range bands {
		if value <= b.upper {
			return Classification{Category: b.category, Tier: i + 1, Label: b.label, Severity: b.severity}
		}
	}
	return Classification{Category: hazardous.category, Tier: len(bands) + 1, Label: hazardous.label, Severity: hazardous.severity}
}

// Categories lists every category from best to worst.
func Categories() []Category {
	out := make([]Category, 0, len(bands)+1)
	for _, b := range bands {
		out = append(out, b.category)
	}
	return append(out, hazardous.category)
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	for _, b := range bands {
		if b.category == c {
			return b.label
		}
	}
	if c == CategoryHazardous {
		return hazardous.label
	}
	return "Unknown"
}

// ParseCategory accepts either the category key or its label ("Very Unhealthy").
func ParseCategory(raw string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == raw || c.Label() == raw {
			return c, true
		}
	}
	return "", false
}
