package documents_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"document-gateway/client/documents"
)

func ExampleClient_Submit() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":"created"}`)
	}))
	defer srv.Close()

	c, err := documents.New(documents.Options{
		Endpoint:     srv.URL,
		WindowUnit:   time.Second,
		WindowCount:  1,
		RequestLimit: 10,
	})
	if err != nil {
		panic(err)
	}
	defer c.Close()

	body, err := c.Submit(context.Background(), map[string]any{"doc_id": "1"}, "base64-signature")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(body))
	// Output:
	// {"value":"created"}
}
