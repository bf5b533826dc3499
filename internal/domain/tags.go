package domain

// TagCategory groups catalog tags for presentation.
type TagCategory string

// Tag categories.
const (
	TagSkills      TagCategory = "skills"
	TagBehavior    TagCategory = "behavior"
	TagPerformance TagCategory = "performance"
)

// TagInfo is the display metadata of one catalog tag. Records store only
// tag names; labels and categories live here.
type TagInfo struct {
	Label    string
	Category TagCategory
}

// TagCatalog is the static tag enumeration, keyed by tag name.
var TagCatalog = map[string]TagInfo{
	"technical-skills":     {Label: "Technical Skills", Category: TagSkills},
	"communication":        {Label: "Communication", Category: TagSkills},
	"leadership":           {Label: "Leadership", Category: TagSkills},
	"problem-solving":      {Label: "Problem Solving", Category: TagSkills},
	"creativity":           {Label: "Creativity", Category: TagSkills},
	"analytical-thinking":  {Label: "Analytical Thinking", Category: TagSkills},
	"teamwork":             {Label: "Teamwork", Category: TagBehavior},
	"initiative":           {Label: "Initiative", Category: TagBehavior},
	"adaptability":         {Label: "Adaptability", Category: TagBehavior},
	"time-management":      {Label: "Time Management", Category: TagBehavior},
	"attention-to-detail":  {Label: "Attention to Detail", Category: TagBehavior},
	"mentoring":            {Label: "Mentoring", Category: TagBehavior},
	"exceeds-expectations": {Label: "Exceeds Expectations", Category: TagPerformance},
	"meets-expectations":   {Label: "Meets Expectations", Category: TagPerformance},
	"needs-improvement":    {Label: "Needs Improvement", Category: TagPerformance},
	"customer-focused":     {Label: "Customer Focused", Category: TagPerformance},
}

// TagLabel returns the display label for a tag name, falling back to the
// raw name for tags absent from the catalog.
func TagLabel(name string) string {
	if info, ok := TagCatalog[name]; ok {
		return info.Label
	}
	return name
}
