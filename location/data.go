package location

import "regexp"

// patterns matching "in New York", "based in LA" and similar phrases.
var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bin ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\bfrom ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\bat ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\bnear ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\bto ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\bvisiting ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\blive in ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\bbased in ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	regexp.MustCompile(`\blocated in ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
}

// knownLocations focuses noisy free text on places that are worth a
// geocoder call: major cities, countries and US states.
var knownLocations = toSet(
	// cities
	"new york", "los angeles", "chicago", "houston", "phoenix", "philadelphia",
	"san antonio", "san diego", "dallas", "san jose", "austin", "san francisco",
	"boston", "seattle", "miami", "atlanta", "tokyo", "delhi", "shanghai", "sao paulo",
	"mexico city", "cairo", "mumbai", "beijing", "dhaka", "osaka", "london", "paris",
	"istanbul", "moscow", "karachi", "lagos", "manila", "berlin", "rome", "madrid",
	"toronto", "sydney", "melbourne", "singapore", "dubai", "bangkok", "hong kong",
	"kuala lumpur", "jakarta", "seoul", "tehran", "brussels", "johannesburg", "kiev",
	// countries
	"usa", "united states", "america", "canada", "mexico", "brazil", "argentina",
	"uk", "united kingdom", "england", "france", "germany", "spain", "italy",
	"russia", "china", "japan", "india", "australia", "south korea", "north korea",
	"egypt", "south africa", "nigeria", "kenya", "pakistan", "bangladesh", "thailand",
	"vietnam", "malaysia", "indonesia", "philippines", "new zealand", "ireland",
	"portugal", "sweden", "norway", "denmark", "finland", "belgium", "netherlands",
	"austria", "switzerland", "poland", "ukraine", "turkey", "iran", "iraq",
	"saudi arabia", "uae", "united arab emirates", "qatar", "israel", "lebanon",
	// US states
	"california", "texas", "florida", "new york state", "pennsylvania", "illinois",
	"ohio", "georgia", "north carolina", "michigan", "new jersey", "virginia",
	"washington", "arizona", "massachusetts", "tennessee", "indiana", "missouri",
	"maryland", "wisconsin", "colorado", "minnesota", "south carolina", "alabama",
	"louisiana", "kentucky", "oregon", "oklahoma", "connecticut", "utah", "iowa",
	"nevada", "arkansas", "mississippi", "kansas", "new mexico", "nebraska",
	"west virginia", "idaho", "hawaii", "new hampshire", "maine", "montana",
	"rhode island", "delaware", "south dakota", "north dakota", "alaska", "vermont",
	"wyoming",
)

// ignoreLocations are profile "locations" that name no place.
var ignoreLocations = toSet(
	"twitter", "internet", "home", "work", "everywhere", "nowhere", "online",
	"inbox", "cloud", "worldwide", "global", "earth", "planet", "universe",
	"website", "app", "web", "platform", "social media", "facebook", "instagram",
	"snapchat", "tiktok", "linkedin", "youtube", "twitch", "reality", "cyberspace",
	"metaverse", "matrix", "zoom", "microsoft", "apple", "google", "amazon",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
