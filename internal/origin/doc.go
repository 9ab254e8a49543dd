// Package origin fetches site resources by site-relative path.
//
// Decorators never talk to the network directly: schedules, the SEO feed,
// fragments and pages are all read through an Origin. HTTP serves a live site
// from its base URL; Dir serves a local export of the site, where "/a/b.json"
// is the file a/b.json under the root and "/a/" is a/index.html.
package origin
