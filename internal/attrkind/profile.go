package attrkind

import (
	"time"

	"attrschema/internal/domain/entity"
)

func choicesOf(pairs ...string) entity.Choices {
	out := make(entity.Choices, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, entity.Choice{Value: pairs[i], Label: pairs[i+1]})
	}

	return out
}

var (
	genderChoices = choicesOf(
		"man", "Man",
		"woman", "Woman",
		"non_binary", "Non-binary",
		"other", "Other",
		"prefer_not_to_say", "Prefer not to say",
	)
	relationshipChoices = choicesOf(
		"single", "Single",
		"in_relationship", "In a relationship",
		"engaged", "Engaged",
		"married", "Married",
		"separated", "Separated",
		"divorced", "Divorced",
		"widowed", "Widowed",
		"its_complicated", "It's complicated",
	)
	lookingForChoices = choicesOf(
		"friendship", "Friendship",
		"dating", "Dating",
		"relationship", "Long-term relationship",
		"marriage", "Marriage",
		"networking", "Networking",
		"activity_partner", "Activity partner",
	)
	educationChoices = choicesOf(
		"high_school", "High school",
		"some_college", "Some college",
		"associate", "Associate degree",
		"bachelor", "Bachelor's degree",
		"master", "Master's degree",
		"doctorate", "Doctorate",
		"trade_school", "Trade school",
		"other", "Other",
	)
	zodiacChoices = choicesOf(
		"aries", "Aries",
		"taurus", "Taurus",
		"gemini", "Gemini",
		"cancer", "Cancer",
		"leo", "Leo",
		"virgo", "Virgo",
		"libra", "Libra",
		"scorpio", "Scorpio",
		"sagittarius", "Sagittarius",
		"capricorn", "Capricorn",
		"aquarius", "Aquarius",
		"pisces", "Pisces",
	)
)

func newGender() Kind {
	desc := choiceDescriptor("gender", "Gender", "Gender identity with an optional self-described value.", CategoryDomain, false, genderChoices)
	desc.DefaultOptions = func() *entity.Document {
		return entity.NewDocument("choices", entity.ChoicesDocument(genderChoices), "allow_custom", false)
	}

	return &choiceKind{desc: desc, widget: widgetSelect, defaults: genderChoices}
}

func newRelationshipStatus() Kind {
	return &choiceKind{
		desc:     choiceDescriptor("relationship_status", "Relationship status", "Current relationship status.", CategoryDomain, false, relationshipChoices),
		widget:   widgetSelect,
		defaults: relationshipChoices,
	}
}

func newLookingFor() Kind {
	return &choiceKind{
		desc:     choiceDescriptor("looking_for", "Looking for", "What the member is looking for.", CategoryDomain, true, lookingForChoices),
		widget:   widgetCheckbox,
		multiple: true,
		defaults: lookingForChoices,
	}
}

func newEducation() Kind {
	return &choiceKind{
		desc:     choiceDescriptor("education", "Education", "Highest completed education level.", CategoryDomain, false, educationChoices),
		widget:   widgetSelect,
		defaults: educationChoices,
	}
}

// newZodiac accepts a sign or a birth date, which is converted to its sign.
func newZodiac() Kind {
	return &choiceKind{
		desc:     choiceDescriptor("zodiac", "Zodiac sign", "Western zodiac sign; a birth date is converted automatically.", CategoryDomain, false, zodiacChoices),
		widget:   widgetSelect,
		defaults: zodiacChoices,
		derive: func(value any) (string, bool) {
			t, ok := ParseDate(value)
			if !ok {
				return "", false
			}

			return ZodiacSign(t), true
		},
	}
}

// zodiacStarts holds the first day of each sign in calendar order. Dates
// before January 20 fall into capricorn.
var zodiacStarts = []struct {
	month time.Month
	day   int
	sign  string
}{
	{time.January, 20, "aquarius"},
	{time.February, 19, "pisces"},
	{time.March, 21, "aries"},
	{time.April, 20, "taurus"},
	{time.May, 21, "gemini"},
	{time.June, 21, "cancer"},
	{time.July, 23, "leo"},
	{time.August, 23, "virgo"},
	{time.September, 23, "libra"},
	{time.October, 23, "scorpio"},
	{time.November, 22, "sagittarius"},
	{time.December, 22, "capricorn"},
}

// ZodiacSign returns the western zodiac sign for a birth date.
func ZodiacSign(t time.Time) string {
	sign := "capricorn"
	for _, start := range zodiacStarts {
		if t.Month() > start.month || (t.Month() == start.month && t.Day() >= start.day) {
			sign = start.sign
		}
	}

	return sign
}
