// Package libadmin provides the public types and coordination primitives of
// the library administration client.
//
// The package is organised around four pieces:
//
//   - a SessionStore holding the bearer token, its expiry and the user name;
//   - a request pipeline (see pkg/libclient) that attaches a fresh token to
//     every authenticated call and refreshes it at most once at a time;
//   - ResourceController, a generic paginated list/search/mutate controller
//     instantiated once per collection (books, authors, students, ...);
//   - LookupCoordinator, a debounced "search as you type" helper used to pick
//     reference entities such as the book or student of a loan.
//
// # Getting started
//
//	cfg := &libadmin.Config{
//		APIEndpoint: "http://localhost:8080/api",
//		Username:    "admin",
//		Password:    "secret",
//	}
//
//	client, err := libclient.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	books := libadmin.NewResourceController[libadmin.Book]("books", client.Books())
//	page, err := books.Search(ctx, libadmin.Query{Page: 0, Size: 10, Keyword: "go"})
//
// # Pagination
//
// Every list operation returns a Page. Backends answer with one of several
// envelope shapes; the collection adapters normalise them so callers only see
// Page fields. PageNumber is zero based.
//
// # Errors
//
// ErrUnauthenticated is returned when no session exists. A failed refresh
// wraps ErrRefreshFailed. Non-2xx responses are *ResponseError values and
// network failures are *TransportError values; use IsNotFound, IsValidation,
// IsUnauthorized and IsTransport to classify them.
package libadmin
