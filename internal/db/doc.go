// Package db opens and adapts PostgreSQL connection pools for the catalog.
package db
