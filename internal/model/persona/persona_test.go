package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRafiqTemplateHasBothSlots(t *testing.T) {
	p := Rafiq()

	assert.Equal(t, 1, strings.Count(p.Template, "{"+HistorySlot+"}"))
	assert.Equal(t, 1, strings.Count(p.Template, "{"+QuestionSlot+"}"))
	assert.Equal(t, 2, strings.Count(p.Template, "{"), "template must contain no other braces")
	assert.Less(t, strings.Index(p.Template, "{history}"), strings.Index(p.Template, "{question}"))
}

func TestRafiqReturnsIndependentCopies(t *testing.T) {
	a := Rafiq()
	a.Name = "changed"

	assert.Equal(t, "رفيق التحرر", Rafiq().Name)
	assert.Equal(t, "rtl", Rafiq().Direction)
	assert.NotEmpty(t, Rafiq().FailureMessage)
}
