package clickhouse

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "pricecast",
		User:        "u",
		Password:    "p",
		DialTimeout: 5 * time.Second,
		AsyncInsert: true,
	})
	if !strings.HasPrefix(dsn, "clickhouse://u:p@ch:9000/pricecast?") {
		t.Fatalf("unexpected dsn %s", dsn)
	}
	if !strings.Contains(dsn, "dial_timeout=5s") || !strings.Contains(dsn, "async_insert=1") {
		t.Fatalf("missing params in %s", dsn)
	}
	if strings.Contains(dsn, "wait_for_async_insert") {
		t.Fatalf("unexpected wait param in %s", dsn)
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := BuildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "d", User: "default", UseHTTP: true})
	if !strings.HasPrefix(dsn, "http://default:@ch:8123/d") {
		t.Fatalf("unexpected dsn %s", dsn)
	}
}
