package dbcli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alekitto/btree/btree"
	"github.com/alekitto/btree/database"
)

var demoHosts = []btree.KeyValue[string, string]{
	{Key: "www.example.org", Value: "93.184.216.34"},
	{Key: "www.twitter.com", Value: "104.244.42.65"},
	{Key: "www.facebook.com", Value: "31.13.92.36"},
	{Key: "www.simpsons.com", Value: "209.052.165.60"},
	{Key: "www.apple.com", Value: "17.112.152.32"},
	{Key: "www.amazon.com", Value: "207.171.182.16"},
	{Key: "www.ebay.com", Value: "66.135.192.87"},
	{Key: "www.cnn.com", Value: "64.236.16.20"},
	{Key: "www.google.com", Value: "216.239.41.99"},
	{Key: "www.nytimes.com", Value: "199.239.136.200"},
	{Key: "www.microsoft.com", Value: "207.126.99.140"},
	{Key: "www.ubuntu.org", Value: "82.98.134.233"},
	{Key: "www.sony.com", Value: "23.33.68.135"},
	{Key: "www.playstation.com", Value: "23.32.11.42"},
	{Key: "www.dell.com", Value: "143.166.224.230"},
	{Key: "www.slashdot.org", Value: "66.35.250.151"},
	{Key: "www.github.com", Value: "192.30.253.112"},
	{Key: "www.gitlab.com", Value: "104.210.2.228"},
	{Key: "www.bitbucket.com", Value: "104.192.143.7"},
	{Key: "www.espn.com", Value: "199.181.135.201"},
	{Key: "www.weather.com", Value: "63.111.66.11"},
	{Key: "www.yahoo.com", Value: "216.109.118.65"},
}

func newDemoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Load a host table and walk through lookups, snapshots and restores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if err := demo(db, out); err != nil {
				return err
			}
			return e.printMetrics(out)
		},
	}
}

func demo(db *database.Database, out io.Writer) error {
	fmt.Fprintln(out, "Database ID:", db.ID())

	hosts, err := db.CreateCollection("hosts")
	if err != nil {
		return err
	}
	for _, kv := range demoHosts {
		if err := hosts.InsertKV(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "loaded %d hosts, height %d\n", hosts.Count(), hosts.Height())

	fmt.Fprintln(out, "\n-- Testing host lookups --")
	for _, key := range []string{"www.github.com", "www.apple.com", "www.yahoo.com", "www.orange.com"} {
		lookup(out, hosts, key)
	}

	fmt.Fprintln(out, "\n-- Testing nearest-key searches --")
	for _, q := range []struct {
		key  string
		mode btree.Mode
	}{
		{"www.github", btree.Lesser},
		{"www.github", btree.Greater},
		{"www.m", btree.Greater},
		{"aaa", btree.Lesser},
		{"zzz", btree.Lesser},
	} {
		if k, v, ok := hosts.Search(q.key, q.mode); ok {
			fmt.Fprintf(out, "%s %s: %s (%s)\n", q.mode, q.key, k, v)
		} else {
			fmt.Fprintf(out, "%s %s: none\n", q.mode, q.key)
		}
	}

	fmt.Fprintln(out, "\n-- Snapshot and restore --")
	id, err := db.Snapshot("hosts")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "snapshot taken:", id)

	for _, key := range []string{"www.github.com", "www.gitlab.com", "www.bitbucket.com"} {
		if _, err := hosts.DeleteKey(key); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "after removals: %d hosts\n", hosts.Count())
	lookup(out, hosts, "www.github.com")

	hosts, err = db.Restore(id, "hosts")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "after restore: %d hosts\n", hosts.Count())
	lookup(out, hosts, "www.github.com")

	if err := hosts.Verify(); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n-- Tree layout --")
	if err := hosts.Dump(out); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nAll done!")
	return nil
}

func lookup(out io.Writer, coll *database.Collection, key string) {
	if value, ok := coll.FindKey(key); ok {
		fmt.Fprintf(out, "found %s: %s\n", key, value)
	} else {
		fmt.Fprintf(out, "%s not found\n", key)
	}
}
