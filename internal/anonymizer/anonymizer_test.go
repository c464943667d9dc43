package anonymizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pasassistant/internal/anonymizer"
)

func TestAnonymize_CaseInsensitive(t *testing.T) {
	a := anonymizer.New(map[string]string{"Acme Corp": "CLIENT_A"})

	got := a.Anonymize("Le contrat ACME CORP et acme corp sont liés à Acme Corp.")

	assert.Equal(t, "Le contrat CLIENT_A et CLIENT_A sont liés à CLIENT_A.", got)
}

func TestAnonymize_LongestFirst(t *testing.T) {
	a := anonymizer.New(map[string]string{
		"Acme":         "CLIENT",
		"Acme Hosting": "HEBERGEUR",
	})

	assert.Equal(t, "HEBERGEUR héberge CLIENT", a.Anonymize("Acme Hosting héberge Acme"))
}

func TestRoundTrip(t *testing.T) {
	a := anonymizer.New(map[string]string{
		"Acme Corp": "CLIENT_A",
		"Paris":     "VILLE_X",
		"Dupont":    "PERSONNE_1",
	})
	text := "M. Dupont de Acme Corp travaille à Paris."

	anon := a.Anonymize(text)
	assert.NotContains(t, anon, "Acme Corp")
	assert.NotContains(t, anon, "Paris")
	assert.Equal(t, text, a.Deanonymize(anon))
}

func TestRoundTrip_NoLiteralPresent(t *testing.T) {
	a := anonymizer.New(map[string]string{"Acme": "CLIENT"})
	text := "Aucun nom ici."

	assert.Equal(t, text, a.Anonymize(text))
	assert.Equal(t, text, a.Deanonymize(a.Anonymize(text)))
}

func TestDeanonymize_ExactAliasOnly(t *testing.T) {
	a := anonymizer.New(map[string]string{"Acme": "CLIENT"})

	assert.Equal(t, "client et Acme", a.Deanonymize("client et CLIENT"))
}

func TestAnonymize_RegexMetacharacters(t *testing.T) {
	a := anonymizer.New(map[string]string{"A.C.M.E (SA)": "X"})

	assert.Equal(t, "société X", a.Anonymize("société a.c.m.e (sa)"))
	assert.Equal(t, "ABCMED (SA)", a.Anonymize("ABCMED (SA)"))
}

func TestEmpty(t *testing.T) {
	assert.True(t, anonymizer.New(nil).Empty())
	assert.True(t, anonymizer.New(map[string]string{"": "x", "y": ""}).Empty())
	assert.False(t, anonymizer.New(map[string]string{"a": "b"}).Empty())
}

func TestDeterministicForEqualLengths(t *testing.T) {
	mapping := map[string]string{"abc": "1", "bcd": "2", "cde": "3"}
	want := anonymizer.New(mapping).Anonymize("abcde")
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, anonymizer.New(mapping).Anonymize("abcde"))
	}
	assert.Equal(t, "1de", want)
}

func TestFromPairs(t *testing.T) {
	got := anonymizer.FromPairs([]anonymizer.Mapping{
		{Real: " Acme ", Alias: " CLIENT "},
		{Real: "", Alias: "X"},
		{Real: "Paris", Alias: ""},
	})

	assert.Equal(t, map[string]string{"Acme": "CLIENT"}, got)
}
