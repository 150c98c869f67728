package message_test

import (
	"fmt"
	"strings"

	"github.com/mjl-/mailsign/message"
)

func ExampleParse() {
	e, err := message.Parse("From: <mjl@example.com>\r\nSubject: folded\r\n  subject\r\n\r\nhi\r\n")
	if err != nil {
		panic(err)
	}
	h, _ := e.Headers.Get("subject")
	fmt.Printf("%q %v\n", h.Value, h.Folded)
	fmt.Printf("%q\n", e.Body)
	// Output:
	// " folded\r\n  subject" true
	// "hi\r\n"
}

func ExampleRenderHeader() {
	h := message.RenderHeader("DomainKey-Signature", "a=rsa-sha1; c=nofws; d=example.com; h=From:To:Subject; q=dns; s=test; b=c2lnbmF0dXJl;")
	for _, line := range strings.Split(strings.TrimSuffix(h, "\r\n"), "\r\n") {
		fmt.Printf("%q\n", line)
	}
	// Output:
	// "DomainKey-Signature: a=rsa-sha1; c=nofws; d=example.com; h=From:To:Subject;"
	// "\tq=dns; s=test; b=c2lnbmF0dXJl;"
}

func ExampleWriter() {
	// NewWriter on a string builder.
	var b strings.Builder
	w := message.NewWriter(&b)

	// Write some lines, some with proper CRLF line ending, others without.
	fmt.Fprint(w, "header: value\r\n")
	fmt.Fprint(w, "another: value\n") // missing \r
	fmt.Fprint(w, "\r\n")
	fmt.Fprint(w, "hi ☺\n") // missing \r

	fmt.Printf("%q\n", b.String())
	fmt.Printf("%v %v", w.Size, w.Has8bit)
	// Output:
	// "header: value\r\nanother: value\r\n\r\nhi ☺\r\n"
	// 41 true
}
