// Package tools defines the calendar and task tools offered to the model
// and dispatches calls to them.
//
// Each tool has a ToolID. Names are looked up once, exactly, and map to an
// executor bound at construction; the calendar_ and tasks_ prefixes carry
// no routing meaning. Dispatch checks the schema's required fields, runs
// the executor inside a tool.<name> span, records tool metrics and writes
// an audit line.
//
// Date arguments are interpreted in the zone attached with WithLocation.
// A bare YYYY-MM-DD snaps to the start or the end of that day depending on
// whether it opens or closes a range.
package tools
