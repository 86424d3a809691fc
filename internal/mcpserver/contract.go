package mcpserver

// RecordFormatContract describes how LLM callers should shape record fields
// and query parameters.
const RecordFormatContract = `# Mia Record Format Contract

Records are JSON objects keyed by field name. Call ` + "`list_hubs`" + ` for the
fields of every hub and their types.

## Field values

| Type         | JSON value                          | Example                    |
|--------------|-------------------------------------|----------------------------|
| title        | string                              | "Write report"             |
| rich_text    | string                              | "Long form notes"          |
| select       | string (option name)                | "high"                     |
| multi_select | list of strings, or a single string | ["drama", "classic"]       |
| date         | string, YYYY-MM-DD, no time         | "2024-06-01"               |
| number       | number                              | 45                         |
| checkbox     | boolean                             | true                       |

## Rules

1. Omit a field (or send null) to leave it untouched. Sending "" , 0, false or
   [] writes that value: [] clears a multi_select.
2. Fields marked required must be present on create.
3. An update must carry at least one field.
4. Integer fields (durations in minutes, years) reject fractions.
5. Unknown field names are rejected.

## Queries

Query parameters are strings. Hubs with planned and deadline dates accept:

- overdue=true: deadline before today and not done or cancelled.
- date=YYYY-MM-DD with scope=planned|deadline|both (default both).
- from / to: inclusive date window on the scoped columns, either side optional.

Only one of overdue, date and from/to may be used per query. Other
parameters (` + "`author_contains`" + `, ` + "`favorite`" + `, ...) are combined with AND.

An unfiltered tasks query returns only tasks that are not done or cancelled.
Every other hub returns all records.
`
