// Package commands defines the trackerctl maintenance CLI.
//
// Commands
//
//   - sendnotifications  Mail the pending notification digests
//   - requeuetickets     Queue the wiki template edits of tickets again
//   - update_mediainfo   Queue a media refresh for every active ticket
//   - cachetickets       Write the ticket listings as static JSON
//   - listgrants         Print the grants
//   - addexampledata     Fill the database with example data
//   - email              Send a mass email to users, topic admins or roots
//
// The root command loads the configuration and builds the shared
// dependency graph from internal/app before any subcommand runs.
package commands
