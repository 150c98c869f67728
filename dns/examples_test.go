package dns_test

import (
	"fmt"
	"log"

	"github.com/mjl-/mailsign/dns"
)

func ExampleParseDomain() {
	// ASCII-only domain.
	basic, err := dns.ParseDomain("example.com")
	if err != nil {
		log.Fatalf("parse domain: %v", err)
	}
	fmt.Printf("%s\n", basic)

	// IDNA domain xn--74h.example.
	smile, err := dns.ParseDomain("☺.example")
	if err != nil {
		log.Fatalf("parse domain: %v", err)
	}
	fmt.Printf("%s\n", smile)

	// Output:
	// example.com
	// ☺.example/xn--74h.example
}

func ExampleParseSelector() {
	// Selectors are often dated, and can have multiple labels.
	sel, err := dns.ParseSelector("2024.test")
	if err != nil {
		log.Fatalf("parse selector: %v", err)
	}
	fmt.Println(sel.ASCII)

	if _, err := dns.ParseSelector("2024..test"); err != nil {
		fmt.Println("empty label rejected")
	}

	// Output:
	// 2024.test
	// empty label rejected
}
