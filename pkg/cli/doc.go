// Package cli implements the bizauthz command-line tool.
//
// # Commands
//
// migrate: Apply pending catalog migrations to BIZAUTHZ_POSTGRES_URL
//
//	bizauthz migrate
//	bizauthz migrate -list
//
// seed: Migrate, then create one system permission per granted pair
//
//	bizauthz seed
//	bizauthz seed -dry-run
//
// grants: Print the static role grant table
//
//	bizauthz grants -format yaml
//	bizauthz grants -role RECEPTIONIST
//
// check: Evaluate a decision locally against the grant table
//
//	bizauthz check -role BUSINESS_OWNER -action MANAGE -resource PROSPECT \
//		-actor-business B1 -business B2
//	BUSINESS_OWNER MANAGE PROSPECT: DENIED (out_of_scope)
//
// serve-metrics: Serve Prometheus metrics and log catalog stats
//
//	bizauthz serve-metrics -addr :9090 -interval 1m
//
// Commands that touch the catalog read their connection settings from the
// BIZAUTHZ_* environment (see package config).
package cli
