package mapping

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mia/internal/apperr"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
)

func TestBuildCreate_OnlyPresentFields(t *testing.T) {
	props, err := BuildCreate(schema.TasksCollection, schema.Record{
		"task_title": "Write report",
		"priority":   "high",
		"deadline":   "2024-06-10",
		"duration":   45.0,
		"notes":      nil,
	})
	require.NoError(t, err)

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"Tarefa", "Prioridade", "Deadline", "Duração Estimada (min)"}, keys)
	assert.Equal(t, 45.0, *props["Duração Estimada (min)"].Number)
}

func TestBuildCreate_MissingRequired(t *testing.T) {
	_, err := BuildCreate(schema.TasksCollection, schema.Record{"priority": "high"})
	require.Error(t, err)

	var missing *apperr.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "task_title", missing.Field)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestBuildUpdate_FalsyValuesAreWritten(t *testing.T) {
	props, err := BuildUpdate(schema.MoviesCollection, schema.Record{
		"favorite": false,
		"rating":   0.0,
		"notes":    "",
		"genres":   []string{},
	})
	require.NoError(t, err)
	require.Len(t, props, 4)

	b, err := json.Marshal(props)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Favorito": {"checkbox": false},
		"Classificação": {"number": 0},
		"Notas": {"rich_text": [{"type":"text","text":{"content":""}}]},
		"Género": {"multi_select": []}
	}`, string(b))

	assert.Equal(t, []string{"genres", "rating", "favorite", "notes"}, UpdatedFields(schema.MoviesCollection, props))
}

func TestBuildUpdate_NoFields(t *testing.T) {
	_, err := BuildUpdate(schema.BooksCollection, schema.Record{"status": nil})
	assert.ErrorIs(t, err, apperr.ErrNoFieldsToUpdate)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBuild_TypeErrorsNameTheField(t *testing.T) {
	tests := []struct {
		name  string
		rec   schema.Record
		field string
	}{
		{"fractional minutes", schema.Record{"task_title": "x", "duration": 12.5}, "duration"},
		{"duration beyond exact integers", schema.Record{"task_title": "x", "duration": 1e300}, "duration"},
		{"date with time", schema.Record{"task_title": "x", "deadline": "2024-06-01T08:00:00Z"}, "deadline"},
		{"string as number", schema.Record{"task_title": "x", "duration": "12"}, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCreate(schema.TasksCollection, tt.rec)
			var ute *apperr.UnsupportedTypeError
			require.ErrorAs(t, err, &ute)
			assert.Equal(t, tt.field, ute.Field)
		})
	}
}

func TestSummarize(t *testing.T) {
	year := 1979.0
	page := notion.Page{
		ID:  "p1",
		URL: "https://www.notion.so/p1",
		Properties: notion.Properties{
			"Título":   {Type: notion.TypeTitle, Title: []notion.RichText{{PlainText: "Alien"}}},
			"Ano":      {Type: notion.TypeNumber, Number: &year},
			"Género":   {Type: notion.TypeMultiSelect, MultiSelect: []notion.SelectOption{{Name: "sci-fi"}, {Name: "horror"}}},
			"Unmapped": {Type: notion.TypeRichText, RichText: []notion.RichText{{PlainText: "ignored"}}},
		},
	}

	got := Summarize(schema.MoviesCollection, page)
	want := Summary{
		ID:  "p1",
		URL: "https://www.notion.so/p1",
		Fields: schema.Record{
			"title":        "Alien",
			"director":     nil,
			"year":         1979,
			"genres":       []string{"sci-fi", "horror"},
			"status":       nil,
			"rating":       nil,
			"watched_date": nil,
			"favorite":     nil,
			"notes":        nil,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_IntegerTruncates(t *testing.T) {
	d := 12.0
	got := Summarize(schema.TasksCollection, notion.Page{
		ID:         "t1",
		Properties: notion.Properties{"Duração Estimada (min)": {Type: notion.TypeNumber, Number: &d}},
	})
	assert.Equal(t, 12, got.Fields["duration"])
	assert.Nil(t, got.Fields["task_title"])

	b, err := json.Marshal(got.Fields)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"duration":12`)
}

func TestSummarizeAll(t *testing.T) {
	pages := []notion.Page{{ID: "a"}, {ID: "b"}}
	got := SummarizeAll(schema.QuotesCollection, pages)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, []string{}, got[0].Fields["category"])
}

func TestCategory(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`"philosophy"`, []string{"philosophy"}},
		{`["a","b"]`, []string{"a", "b"}},
		{`[]`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c Category
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.want, c.Values())
		})
	}

	var c Category
	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
}

func TestDecodeInput(t *testing.T) {
	rec, err := DecodeInput(schema.QuotesCollection, []byte(`{
		"quote": "Be water",
		"author": null,
		"category": "philosophy",
		"favorite": false
	}`))
	require.NoError(t, err)

	want := schema.Record{
		"quote":    "Be water",
		"category": []string{"philosophy"},
		"favorite": false,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("DecodeInput mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInput_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"quote":`, "invalid JSON"},
		{"not an object", `"text"`, "invalid JSON"},
		{"null body", `null`, "must be a JSON object"},
		{"unknown keys sorted", `{"zeta":1,"alpha":2,"quote":"x"}`, "[alpha zeta]"},
		{"wrong type", `{"quote":"x","favorite":"yes"}`, `"favorite"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInput(schema.QuotesCollection, []byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
