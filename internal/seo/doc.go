// Package seo applies per-page metadata and content overrides from the site's
// SEO feed.
//
// The feed (/seo.json) lists one record per page path. When the current path
// has a record, its title replaces the document title, the first heading and
// every *:title meta tag; its description replaces every *:description meta
// tag; and a pair of column cells becomes a columns block appended to the
// first section of <main>.
//
// The feed is read once per Store. Concurrent first lookups share a single
// fetch, and the result is kept for the Store's lifetime.
package seo
