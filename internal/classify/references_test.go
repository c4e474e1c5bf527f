package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const answerWithCitations = `Several brokers offer online trading.
Yuanta has a popular app.

[1]: https://www.fubon.com/securities "Online trading"
[2]: https://news.example.com/brokers "Broker ranking 2025"`

func TestExtractReferences(t *testing.T) {
	refs := ExtractReferences(answerWithCitations)
	assert.Equal(t,
		`[1]: https://www.fubon.com/securities "Online trading"`+"\n"+
			`[2]: https://news.example.com/brokers "Broker ranking 2025"`,
		refs,
	)
	assert.Equal(t, "", ExtractReferences(""))
	assert.Equal(t, "", ExtractReferences("no citations here"))
}

func TestStripReferencesRemovesCitationOnlyBrands(t *testing.T) {
	brands := []string{"fubon"}
	assert.Equal(t, 1, CountBrandMatches(answerWithCitations, brands))

	stripped := StripReferences(answerWithCitations)
	assert.NotContains(t, stripped, "https://")
	assert.Equal(t, 0, CountBrandMatches(stripped, brands))
	assert.Equal(t, 1, CountBrandMatches(stripped, []string{"yuanta"}))
}
