package produce

import "regexp"

// patternHint maps a column-name pattern to a named generator. Hints are
// tried in order against textual columns before generic type handling;
// the first match wins.
type patternHint struct {
	pattern   *regexp.Regexp
	generator string
}

var patternHints = []patternHint{
	{regexp.MustCompile(`(?i)e[-_]?mail`), "email"},
	{regexp.MustCompile(`(?i)^(first|given)[-_]?name$`), "first_name"},
	{regexp.MustCompile(`(?i)^(last|family)[-_]?name$|^surname$`), "last_name"},
	{regexp.MustCompile(`(?i)^(full[-_]?)?name$|^display[-_]?name$`), "full_name"},
	{regexp.MustCompile(`(?i)^user[-_]?name$|^login$|^handle$`), "username"},
	{regexp.MustCompile(`(?i)phone|mobile|fax`), "phone"},
	{regexp.MustCompile(`(?i)^(street[-_]?)?address|^street$`), "address"},
	{regexp.MustCompile(`(?i)^city$|^town$`), "city"},
	{regexp.MustCompile(`(?i)^country$`), "country"},
	{regexp.MustCompile(`(?i)^(zip|postal)([-_]?code)?$`), "zip"},
	{regexp.MustCompile(`(?i)^company|^employer$|^organization$`), "company"},
	{regexp.MustCompile(`(?i)url|website|homepage|^link$`), "url"},
	{regexp.MustCompile(`(?i)description|summary|comment|notes?$|^bio$`), "sentence"},
}

// hintFor returns the generator name for a column whose name matches a
// pattern hint.
func hintFor(columnName string) (string, bool) {
	for _, h := range patternHints {
		if h.pattern.MatchString(columnName) {
			return h.generator, true
		}
	}
	return "", false
}

// Word lists for the built-in generators. Small on purpose: variety comes
// from combination and numbering, not list size.
var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
		"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
		"Joseph", "Jessica", "Thomas", "Sarah", "Carlos", "Nancy", "Ayse",
		"Mehmet", "Fatma", "Emre", "Zeynep", "Deniz",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
		"Wilson", "Anderson", "Yilmaz", "Kaya", "Demir", "Celik", "Sahin",
	}
	emailDomains = []string{
		"example.com", "example.org", "example.net", "mail.test", "inbox.test",
	}
	streetNames = []string{
		"Main", "Oak", "Pine", "Maple", "Cedar", "Elm", "Washington", "Lake",
		"Hill", "Park", "River", "Sunset", "Highland", "Forest",
	}
	streetSuffixes = []string{"St", "Ave", "Blvd", "Dr", "Ln", "Rd", "Way", "Ct"}
	cities         = []string{
		"Springfield", "Riverton", "Fairview", "Kingston", "Ashland", "Milton",
		"Georgetown", "Arlington", "Burlington", "Clinton", "Dayton", "Lakeside",
	}
	countries = []string{
		"United States", "Canada", "Mexico", "Brazil", "Germany", "France",
		"Spain", "Italy", "Turkey", "Japan", "Australia", "Netherlands",
	}
	companyNames = []string{
		"Acme", "Globex", "Initech", "Umbrella", "Stark", "Wayne", "Wonka",
		"Hooli", "Vandelay", "Cyberdyne", "Tyrell", "Aperture",
	}
	companySuffixes = []string{"Inc", "LLC", "Ltd", "Corp", "Group", "Labs"}
	tlds            = []string{"com", "org", "net", "io", "dev"}
	words           = []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
		"hotel", "india", "juliet", "kilo", "lima", "mike", "november",
		"oscar", "papa", "quebec", "romeo", "sierra", "tango", "uniform",
		"victor", "whiskey", "xray", "yankee", "zulu",
	}
)
