// Package extract pulls typed values out of free text: dates and times,
// money amounts, tags, locations and attendee lists.
//
// Every extractor is total. Failure is reported with a false ok value and
// never as an error. Extractors that consume text also return the remainder
// with the consumed words removed, so callers can chain them in a fixed
// order: tags, location, attendees, then date/time.
package extract
