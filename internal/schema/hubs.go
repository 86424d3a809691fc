package schema

// Hub names.
const (
	Tasks       = "tasks"
	Movies      = "movies"
	Books       = "books"
	Quotes      = "quotes"
	Notes       = "notes"
	Investments = "investments"
)

// Task lifecycle states excluded by the active default filter.
const (
	StateDone      = "done"
	StateCancelled = "cancelled"
)

// Column names must match the Notion databases; override them per hub in
// the config file when a workspace differs.
var (
	TasksCollection = func() *Collection {
		c := MustNew(Tasks, []FieldSpec{
			{Name: "task_title", Column: "Tarefa", Type: Title, Required: true},
			{Name: "status", Column: "Estado", Type: Select},
			{Name: "priority", Column: "Prioridade", Type: Select},
			{Name: "planned_date", Column: "Data Planeada", Type: Date},
			{Name: "deadline", Column: "Deadline", Type: Date},
			{Name: "duration", Column: "Duração Estimada (min)", Type: Number, Integer: true},
			{Name: "energy_required", Column: "Energia Necessária", Type: Select},
			{Name: "area", Column: "Área da Vida", Type: Select},
			{Name: "notes", Column: "Notas", Type: RichText},
		}, Filters{
			PlannedField:   "planned_date",
			DeadlineField:  "deadline",
			StateField:     "status",
			TerminalStates: []string{StateDone, StateCancelled},
			Default:        DefaultActive,
			Terms: []Term{
				{Param: "status", Field: "status", Op: OpEquals},
				{Param: "priority", Field: "priority", Op: OpEquals},
				{Param: "area", Field: "area", Op: OpEquals},
				{Param: "energy_required", Field: "energy_required", Op: OpEquals},
				{Param: "title_contains", Field: "task_title", Op: OpContains},
			},
		})
		c.Primary = true
		return c
	}()

	MoviesCollection = MustNew(Movies, []FieldSpec{
		{Name: "title", Column: "Título", Type: Title, Required: true},
		{Name: "director", Column: "Realizador", Type: RichText},
		{Name: "year", Column: "Ano", Type: Number, Integer: true},
		{Name: "genres", Column: "Género", Type: MultiSelect},
		{Name: "status", Column: "Estado", Type: Select},
		{Name: "rating", Column: "Classificação", Type: Number},
		{Name: "watched_date", Column: "Data Visto", Type: Date},
		{Name: "favorite", Column: "Favorito", Type: Checkbox},
		{Name: "notes", Column: "Notas", Type: RichText},
	}, Filters{
		Default: DefaultAll,
		Terms: []Term{
			{Param: "title_contains", Field: "title", Op: OpContains},
			{Param: "director_contains", Field: "director", Op: OpContains},
			{Param: "genre", Field: "genres", Op: OpContains},
			{Param: "status", Field: "status", Op: OpEquals},
			{Param: "year", Field: "year", Op: OpEquals},
			{Param: "favorite", Field: "favorite", Op: OpEquals},
			{Param: "watched_from", Field: "watched_date", Op: OpOnOrAfter},
			{Param: "watched_to", Field: "watched_date", Op: OpOnOrBefore},
		},
	})

	BooksCollection = MustNew(Books, []FieldSpec{
		{Name: "title", Column: "Título", Type: Title, Required: true},
		{Name: "author", Column: "Autor", Type: RichText},
		{Name: "genres", Column: "Género", Type: MultiSelect},
		{Name: "status", Column: "Estado", Type: Select},
		{Name: "rating", Column: "Classificação", Type: Number},
		{Name: "pages", Column: "Páginas", Type: Number, Integer: true},
		{Name: "finished_date", Column: "Data de Conclusão", Type: Date},
		{Name: "favorite", Column: "Favorito", Type: Checkbox},
		{Name: "notes", Column: "Notas", Type: RichText},
	}, Filters{
		Default: DefaultAll,
		Terms: []Term{
			{Param: "title_contains", Field: "title", Op: OpContains},
			{Param: "author_contains", Field: "author", Op: OpContains},
			{Param: "genre", Field: "genres", Op: OpContains},
			{Param: "status", Field: "status", Op: OpEquals},
			{Param: "favorite", Field: "favorite", Op: OpEquals},
			{Param: "finished_from", Field: "finished_date", Op: OpOnOrAfter},
			{Param: "finished_to", Field: "finished_date", Op: OpOnOrBefore},
		},
	})

	QuotesCollection = MustNew(Quotes, []FieldSpec{
		{Name: "quote", Column: "Citação", Type: Title, Required: true},
		{Name: "author", Column: "Autor", Type: RichText},
		{Name: "source", Column: "Fonte", Type: RichText},
		{Name: "category", Column: "Categoria", Type: MultiSelect},
		{Name: "favorite", Column: "Favorita", Type: Checkbox},
	}, Filters{
		Default: DefaultAll,
		Terms: []Term{
			{Param: "author_contains", Field: "author", Op: OpContains},
			{Param: "text_contains", Field: "quote", Op: OpContains},
			{Param: "category", Field: "category", Op: OpContains},
			{Param: "favorite", Field: "favorite", Op: OpEquals},
		},
	})

	NotesCollection = MustNew(Notes, []FieldSpec{
		{Name: "title", Column: "Título", Type: Title, Required: true},
		{Name: "content", Column: "Conteúdo", Type: RichText},
		{Name: "category", Column: "Categoria", Type: MultiSelect},
		{Name: "date", Column: "Data", Type: Date},
		{Name: "pinned", Column: "Fixada", Type: Checkbox},
	}, Filters{
		Default: DefaultAll,
		Terms: []Term{
			{Param: "title_contains", Field: "title", Op: OpContains},
			{Param: "content_contains", Field: "content", Op: OpContains},
			{Param: "category", Field: "category", Op: OpContains},
			{Param: "pinned", Field: "pinned", Op: OpEquals},
			{Param: "date_from", Field: "date", Op: OpOnOrAfter},
			{Param: "date_to", Field: "date", Op: OpOnOrBefore},
		},
	})

	InvestmentsCollection = MustNew(Investments, []FieldSpec{
		{Name: "name", Column: "Nome", Type: Title, Required: true},
		{Name: "ticker", Column: "Ticker", Type: RichText},
		{Name: "type", Column: "Tipo", Type: Select},
		{Name: "broker", Column: "Corretora", Type: Select},
		{Name: "amount", Column: "Montante", Type: Number},
		{Name: "quantity", Column: "Quantidade", Type: Number},
		{Name: "purchase_date", Column: "Data de Compra", Type: Date},
		{Name: "notes", Column: "Notas", Type: RichText},
	}, Filters{
		Default: DefaultAll,
		Terms: []Term{
			{Param: "ticker_contains", Field: "ticker", Op: OpContains},
			{Param: "name_contains", Field: "name", Op: OpContains},
			{Param: "type", Field: "type", Op: OpEquals},
			{Param: "broker", Field: "broker", Op: OpEquals},
			{Param: "purchased_from", Field: "purchase_date", Op: OpOnOrAfter},
			{Param: "purchased_to", Field: "purchase_date", Op: OpOnOrBefore},
		},
	})
)

// All returns the built-in hub schemas in display order.
func All() []*Collection {
	return []*Collection{
		TasksCollection,
		MoviesCollection,
		BooksCollection,
		QuotesCollection,
		NotesCollection,
		InvestmentsCollection,
	}
}
