package prompt

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/founderflow-backend/internal/schema"
)

func TestBuiltinsCompile(t *testing.T) {
	reg := Default()
	names := []string{
		IdeaGenerator, IdeationBoard, IdeaValidator, Roadmap, Branding, ColorScheme,
		LegalSimplify, CorporateStructure, LegalChat, ColdEmail, SocialContent, SEOKeywords,
	}
	require.Len(t, reg.List(), len(names))
	for _, n := range names {
		tpl, ok := reg.Get(n)
		require.True(t, ok, n)
		assert.NotEmpty(t, tpl.Title, n)
	}
}

func TestBuildDeterministic(t *testing.T) {
	reg := Default()
	req := Request{"industry": "Tech", "problem": "Time Management", "target_audience": "Students"}
	a, err := reg.Build(IdeaGenerator, req)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		b, err := reg.Build(IdeaGenerator, req.Clone())
		require.NoError(t, err)
		require.Equal(t, a.Text, b.Text)
	}
}

func TestBuildLayout(t *testing.T) {
	p, err := Default().Build(IdeaGenerator, Request{
		"business_model": "Subscription",
		"industry":       "  Tech ",
		"problem":        "Time Management",
		"unrelated":      "ignored value",
	})
	require.NoError(t, err)

	text := p.Text
	assert.True(t, strings.HasPrefix(text, "You are an AI assistant specializing in startup ideation."))
	assert.NotContains(t, text, "ignored value")
	assert.NotContains(t, text, "Target Audience:")

	// fields appear in declaration order regardless of map order
	iInd := strings.Index(text, "- Industry: Tech\n")
	iProb := strings.Index(text, "- Problem: Time Management\n")
	iModel := strings.Index(text, "- Business Model: Subscription\n")
	require.True(t, iInd > 0 && iProb > iInd && iModel > iProb, text)

	iFence := strings.Index(text, "```json\n")
	require.Greater(t, iFence, iModel)
	assert.True(t, strings.HasSuffix(text, "\n```"))
	assert.Equal(t, IdeaGenerator, p.Template)
	assert.Equal(t, "idea_analysis", p.Schema.Name)
}

func TestBuildValidation(t *testing.T) {
	reg := Default()
	cases := []Request{
		nil,
		{},
		{"industry": "", "problem": "   \t\n"},
		{"unknown_key": "has a value"},
	}
	for i, req := range cases {
		_, err := reg.Build(IdeaGenerator, req)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "case %d: %v", i, err)
		assert.Equal(t, IdeaGenerator, ve.Template)
		assert.Equal(t, []string{"industry", "problem", "target_audience", "business_model"}, ve.Fields)
	}

	_, err := reg.Build(IdeaGenerator, Request{"target_audience": "Parents"})
	require.NoError(t, err)
}

func TestBuildUnknownTemplate(t *testing.T) {
	_, err := Default().Build("does_not_exist", Request{"x": "y"})
	require.ErrorIs(t, err, ErrUnknownTemplate)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestTaskTemplateFallbacks(t *testing.T) {
	p, err := Default().Build(IdeaValidator, Request{"problem": "Late invoices"})
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Validate this unnamed startup.")

	p, err = Default().Build(IdeaValidator, Request{"startup_name": "PayPal for Plumbers"})
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Validate PayPal for Plumbers.")
}

func TestExamplesMatchSchema(t *testing.T) {
	for _, tpl := range Default().List() {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(tpl.Example), &m), tpl.Name)
		require.NoError(t, tpl.Schema.Validate(m), tpl.Name)
	}
}

func TestCompileRejects(t *testing.T) {
	good := Spec{
		Name:     "t",
		Version:  1,
		Preamble: "p",
		Fields:   []Field{{Key: "a"}},
		Schema:   schema.Schema{Name: "s", Fields: []schema.Field{schema.Str("x")}},
		Example:  `{"x":"y"}`,
	}
	_, err := Compile(good)
	require.NoError(t, err)

	mutate := []func(s *Spec){
		func(s *Spec) { s.Name = " " },
		func(s *Spec) { s.Version = 0 },
		func(s *Spec) { s.Preamble = "" },
		func(s *Spec) { s.Fields = nil },
		func(s *Spec) { s.Fields = []Field{{Key: "a"}, {Key: "a"}} },
		func(s *Spec) { s.Example = "not json" },
		func(s *Spec) { s.Example = `{"y":"x"}` },
		func(s *Spec) { s.Task = "{{.a" },
	}
	for i, m := range mutate {
		s := good
		m(&s)
		_, err := Compile(s)
		assert.Error(t, err, "case %d", i)
	}

	reg := NewRegistry()
	assert.Panics(t, func() { reg.RegisterSpec(Spec{Name: "bad"}) })
}

func TestRequestCloneIsolated(t *testing.T) {
	orig := Request{"industry": "Tech"}
	c := orig.Clone()
	orig["industry"] = "Finance"
	assert.Equal(t, "Tech", c["industry"])
	assert.NotNil(t, Request(nil).Clone())
}

func TestSurprise(t *testing.T) {
	tpl, ok := Default().Get(IdeaGenerator)
	require.True(t, ok)
	rnd := rand.New(rand.NewSource(7))
	got := tpl.Surprise(rnd, Request{"industry": "Biotech"})
	assert.Equal(t, "Biotech", got["industry"])
	for _, f := range tpl.Fields[1:] {
		assert.Contains(t, f.Suggestions, got[f.Key])
	}
}
