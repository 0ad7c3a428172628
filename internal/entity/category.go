package entity

// Category identifies one of the fixed news sections the crawler knows about.
// It is fixed at crawl-request time and never inferred from page content.
type Category string

const (
	CategoryPolitics Category = "politics"
	CategoryEconomy  Category = "economy"
	CategorySociety  Category = "society"
	CategoryLife     Category = "life"
	CategoryWorld    Category = "world"
	CategoryIT       Category = "it"
)

// AllCategories returns every known category in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryPolitics,
		CategoryEconomy,
		CategorySociety,
		CategoryLife,
		CategoryWorld,
		CategoryIT,
	}
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	switch c {
	case CategoryPolitics, CategoryEconomy, CategorySociety,
		CategoryLife, CategoryWorld, CategoryIT:
		return c, true
	}
	return "", false
}

var koreanNames = map[Category]string{
	CategoryPolitics: "정치",
	CategoryEconomy:  "경제",
	CategorySociety:  "사회",
	CategoryLife:     "생활/문화",
	CategoryWorld:    "세계",
	CategoryIT:       "IT/과학",
}

// KoreanName returns the display name used by the blog templates.
func (c Category) KoreanName() string {
	if name, ok := koreanNames[c]; ok {
		return name
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}
