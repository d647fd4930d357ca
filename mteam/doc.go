// Package mteam provides a client for the M-Team torrent tracker API.
//
// The client covers the small part of the API the station tooling needs:
// searching, fetching torrent details, generating download links and
// polling the RSS feed. Every API call is preceded by a random pause so a
// run of sequential calls stays below the tracker rate limit.
//
// # Usage
//
//	client, err := mteam.NewClient(
//		"https://api.m-team.cc/api",
//		"your-api-key",
//		logger,
//		mteam.WithRSS(rssURL),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	items, err := client.Search(ctx, mteam.SearchQuery{Mode: "movie", Page: 1, PageSize: 25})
//
// # Error Handling
//
// Responses other than HTTP 200 with message SUCCESS are returned as
// *APIError. ErrNoData is returned for successful responses without data.
package mteam
