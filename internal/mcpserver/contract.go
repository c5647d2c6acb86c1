package mcpserver

// TripFormatContract describes the trip record that LLM consumers create and
// update through the trip tools.
const TripFormatContract = `# TravelMate Trip Contract

A trip is one planned journey to a single destination.

## Fields

| Field | Type | Notes |
|---|---|---|
| ` + "`id`" + ` | string | Assigned on creation, never reused. |
| ` + "`title`" + ` | string | REQUIRED, at least 3 characters. |
| ` + "`destination`" + ` | location | City from the catalogue; a bare name is kept when no city matches. |
| ` + "`startDate`" + ` | date | REQUIRED, ` + "`YYYY-MM-DD`" + `. |
| ` + "`endDate`" + ` | date | REQUIRED, ` + "`YYYY-MM-DD`" + `, not before ` + "`startDate`" + `. |
| ` + "`budget`" + ` | number | Non-negative, in ` + "`currency`" + `. |
| ` + "`currency`" + ` | string | ISO 4217 code such as ` + "`EUR`" + `; defaults to the preferred currency. |
| ` + "`status`" + ` | string | ` + "`planning`" + `, ` + "`active`" + ` or ` + "`completed`" + `; defaults to ` + "`planning`" + `. |
| ` + "`notes`" + ` | string | Free-form. |
| ` + "`createdAt`" + ` / ` + "`updatedAt`" + ` | timestamp | Maintained by the store. |

## Lifecycle

1. New trips start in ` + "`planning`" + ` unless another status is given.
2. Use ` + "`update_trip_status`" + ` to move a trip to ` + "`active`" + ` when travel starts and to
   ` + "`completed`" + ` when it ends. Any stage may move to any other.
3. ` + "`delete_trip`" + ` removes a trip permanently. Use ` + "`export_data`" + ` first if a copy is needed.

## Example

` + "```" + `json
{
  "title": "Paris Trip",
  "destination": "Paris",
  "startDate": "2025-06-01",
  "endDate": "2025-06-10",
  "budget": 2000,
  "currency": "EUR"
}
` + "```" + `
`
