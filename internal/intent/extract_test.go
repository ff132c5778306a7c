package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget(t *testing.T) {
	budget := Budget("show me headphones under $100", Extracted{})
	require.NotNil(t, budget)
	assert.Equal(t, 100.0, *budget)

	budget = Budget("gifts under 50", Extracted{})
	require.NotNil(t, budget)
	assert.Equal(t, 50.0, *budget)

	assert.Nil(t, Budget("show me headphones", Extracted{}))

	// AI-extracted value wins over the regex.
	aiBudget := 75.0
	budget = Budget("under $100", Extracted{Budget: &aiBudget})
	require.NotNil(t, budget)
	assert.Equal(t, 75.0, *budget)
}

func TestAge(t *testing.T) {
	age := Age("gift for a 5 year old boy", Extracted{})
	require.NotNil(t, age)
	assert.Equal(t, 5, *age)

	age = Age("present for a 12-year-old", Extracted{})
	require.NotNil(t, age)
	assert.Equal(t, 12, *age)

	assert.Nil(t, Age("gift for my brother", Extracted{}))
}

func TestGender(t *testing.T) {
	assert.Equal(t, "female", Gender("gift for a woman", Extracted{}))
	assert.Equal(t, "male", Gender("gift for a man", Extracted{}))
	assert.Equal(t, "female", Gender("something for my girlfriend", Extracted{}))
	assert.Equal(t, "male", Gender("present for my son", Extracted{}))
	assert.Equal(t, "", Gender("gift for a friend", Extracted{}))

	// "man" must not match inside "woman".
	assert.Equal(t, "female", Gender("birthday gift for a woman who likes hiking", Extracted{}))
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "electronics", Category("show me electronics", Extracted{}))
	assert.Equal(t, "toys", Category("best toys for kids", Extracted{}))
	assert.Equal(t, "", Category("show me something nice", Extracted{}))
	assert.Equal(t, "books", Category("anything", Extracted{Category: "Books"}))
}

func TestOccasion(t *testing.T) {
	assert.Equal(t, "birthday", Occasion("birthday gift ideas", Extracted{}))
	assert.Equal(t, "wedding", Occasion("what to buy for a wedding", Extracted{}))
	assert.Equal(t, "", Occasion("gift ideas", Extracted{}))
}

func TestCompareTargets(t *testing.T) {
	targets := CompareTargets("iPhone 15 vs Galaxy S24", Extracted{})
	require.Len(t, targets, 2)
	assert.Equal(t, "iPhone 15", targets[0])
	assert.Equal(t, "Galaxy S24", targets[1])

	targets = CompareTargets("compare the Aurora headphones with the Nimbus speaker", Extracted{})
	require.Len(t, targets, 2)
	assert.Equal(t, "the Aurora headphones", targets[0])

	assert.Nil(t, CompareTargets("compare prices", Extracted{}))

	// AI-extracted product list wins.
	targets = CompareTargets("which is better", Extracted{Products: []string{"A", "B"}})
	assert.Equal(t, []string{"A", "B"}, targets)
}

func TestSpecKeywords(t *testing.T) {
	keywords := SpecKeywords("What are the specs of the Aurora headphones?")
	assert.Equal(t, []string{"aurora", "headphones"}, keywords)

	assert.Empty(t, SpecKeywords("what specs"))
}

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, "wireless headphones", SearchTerms("find me wireless headphones"))
	assert.Equal(t, "", SearchTerms("show me"))
}

func TestParseDataLine(t *testing.T) {
	extracted := parseDataLine("budget $100, electronics")
	require.NotNil(t, extracted.Budget)
	assert.Equal(t, 100.0, *extracted.Budget)
	assert.Equal(t, "electronics", extracted.Category)

	// A number qualified by "year" is an age, not a budget.
	extracted = parseDataLine("5 year old, birthday")
	require.NotNil(t, extracted.Age)
	assert.Equal(t, 5, *extracted.Age)
	assert.Nil(t, extracted.Budget)
	assert.Equal(t, "birthday", extracted.Occasion)

	extracted = parseDataLine("iPhone 15 vs Galaxy S24")
	assert.Len(t, extracted.Products, 2)
}
