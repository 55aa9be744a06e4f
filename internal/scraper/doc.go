// Package scraper fetches Liquipedia pages and feeds them to the extractor.
//
// Client performs rate-limited GETs with exponential backoff on network errors,
// 5xx and 429 responses, and resolves team links by following redirects. Resolved
// links are cached for a configurable TTL; a link that cannot be requested is
// returned unchanged so extraction can degrade instead of failing.
//
// Crawler builds on Client: Tournament assembles one page, Event follows the
// event navigation tabs visiting each page once, and Listing treats every
// tournament on a listing page as an event. Pages are processed concurrently up
// to a configured limit.
package scraper
