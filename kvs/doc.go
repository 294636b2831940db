// Package kvs provides a client for a kvs server over TCP.
//
// Example:
//
//	client, err := kvs.Connect(kvs.WithPort(4000))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Set("foo", "bar")
//	val, ok, err := client.Get("foo")
//
// Errors reported by the server can be matched with errors.Is against the
// sentinels in package core, e.g. core.ErrKeyNotFound.
package kvs
