// Package schedule resolves which promotional banner a page should show.
//
// A schedule is a sheet of rules exported as JSON. Each rule pairs a URL glob
// and an optional date window with the path of a banner fragment. Rules are
// evaluated in sheet order and the first one that matches both the current
// path and the current time wins.
package schedule
