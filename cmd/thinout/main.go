// Thinout keeps a time-bucketed selection of dated files and removes the
// rest.
//
// A retention policy such as "4:4,15:5,40:4" keeps up to four files in the
// last four days, five in the fifteen days before that and four in the
// forty days before those. Older files are never touched.
//
// Usage:
//
//	# Thin every target in the configuration file
//	thinout run --config thinout.yaml
//
//	# Show what would be removed, with a timeline per target
//	thinout plan
//
//	# Thin a directory without a configuration file
//	thinout thin /var/backups --policy 7:7,21:3,60:2 --pattern '*.tar.gz'
//
//	# Try a policy on a synthetic series
//	thinout simulate --policy 4:4,15:5,40:4 --days 80
//
//	# Run scheduled targets and serve metrics and run history
//	thinout serve
package main

func main() {
	Execute()
}
