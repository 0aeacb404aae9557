// Package calendar is the Google Calendar collaborator used by the calendar
// tools.
//
// Service is the narrow contract the tool layer depends on; GoogleService
// implements it on the Calendar v3 API with one cached API client per user.
// FindTimeGaps and SuggestFocusBlock compute focus-time suggestions from an
// event list without touching the API.
package calendar
