// Package libclient provides the entry point for constructing a library
// administration client that implements the libadmin.Client interface.
//
// It wires configuration, the HTTP pipeline, the session store and the token
// refresh coordinator behind the collection interfaces defined in libadmin.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/libadmin/pkg/libadmin"
//	  "github.com/fivetwenty-io/libadmin/pkg/libclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Log in once and keep the session in memory.
//	  cli, err := libclient.NewWithPassword(ctx, "http://localhost:8080/api", "admin", "secret")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or keep the session on disk so later runs skip the login.
//	  store, err := libclient.NewBoltSessionStore("/home/me/.libadmin/session.db")
//	  if err != nil { log.Fatal(err) }
//	  defer store.Close()
//
//	  cli, err = libclient.New(ctx, &libadmin.Config{
//	    APIEndpoint:  "http://localhost:8080/api",
//	    SessionStore: store,
//	  })
//
//	  books := libclient.NewController(cli, "books", cli.Books())
//	  page, err := books.Search(ctx, libadmin.Query{Page: 0, Size: 10, Keyword: "go"})
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// Endpoints without a scheme get "http://" when they point at localhost and
// "https://" otherwise.
package libclient
