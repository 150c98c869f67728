/*
Command mailsign adds DKIM and DomainKeys signatures to email messages.

  - DKIM signatures (RFC 6376) with rsa-sha256 or rsa-sha1, simple or relaxed
    canonicalization.
  - DomainKeys signatures (RFC 4870) with simple or nofws canonicalization, for
    receivers that still verify them.
  - Both signatures with a single key, DKIM first so DomainKeys covers it.
  - Configuration file in sconf format, or signing without configuration.
  - Prometheus metrics written to a node exporter textfile.

# Commands

	mailsign [-config mailsign.conf] [-loglevel level] [-metricsfile file] ...
	mailsign sign [-force] [message]
	mailsign dkim sign -domain domain -selector selector -key file [-algorithm alg] [-c header/body] [-headers A,B] [message]
	mailsign dkim txt <$selector._domainkey.$domain.key.pkcs8.pem
	mailsign dkim genrsa [-bits n] >$selector._domainkey.$domain.rsa2048.privatekey.pkcs8.pem
	mailsign domainkey sign -domain domain -selector selector -key file [-c simple|nofws] [-headers A,B] [message]
	mailsign domainkey txt [-testing] <$selector._domainkey.$domain.key.pkcs8.pem
	mailsign canonicalize dkim [-c header/body] [-headers A,B] [message]
	mailsign canonicalize domainkey [-c simple|nofws] [-headers A,B] [message]
	mailsign config test
	mailsign config describe >mailsign.conf
	mailsign version
	mailsign help [command ...]

The message to sign is read from a file or stdin, and written to stdout. Bare
newlines are replaced with CRLF before signing. Specify the configuration file
through the -config flag or MAILSIGNCONF environment variable.

# mailsign sign

Sign a message with the signers from the configuration file.

The message is read from the file, or from stdin. A DKIM-Signature header is
added first, then a DomainKey-Signature header, for the signers that are
configured. The signed message is written to stdout.

Multipart messages are refused unless -force is set: mail software that
regenerates MIME boundaries invalidates the signatures.

	usage: mailsign sign [-force] [message]
	  -force
	    	also sign multipart messages

# mailsign dkim sign

Sign a message with DKIM, without configuration file.

The message is read from the file, or from stdin, and printed with a
DKIM-Signature header prepended. All headers to sign must be present in the
message.

	usage: mailsign dkim sign -domain domain -selector selector -key file [-algorithm alg] [-c header/body] [-headers A,B] [message]
	  -algorithm string
	    	rsa-sha256 or rsa-sha1 (default "rsa-sha256")
	  -c string
	    	canonicalization (default "relaxed/relaxed")
	  -domain string
	    	domain to sign for, required
	  -headers string
	    	comma-separated header names to sign (default "From,To,Subject")
	  -key string
	    	file with pem private key, required
	  -selector string
	    	selector of the public key in dns, required

# mailsign dkim txt

Print a DKIM DNS TXT record with the public key derived from the private key read from stdin.

The DNS should be configured as a TXT record at $selector._domainkey.$domain.

	usage: mailsign dkim txt <$selector._domainkey.$domain.key.pkcs8.pem

# mailsign dkim genrsa

Generate a new RSA private key for use with DKIM and DomainKeys.

The generated file is in PEM format, and has a comment it is generated for use
with DKIM and DomainKeys, by mailsign.

	usage: mailsign dkim genrsa [-bits n] >$selector._domainkey.$domain.rsa2048.privatekey.pkcs8.pem
	  -bits int
	    	size of key in bits (default 2048)

# mailsign domainkey sign

Sign a message with DomainKeys, without configuration file.

The message is read from the file, or from stdin, and printed with a
DomainKey-Signature header prepended. Without -headers, all headers are signed.

	usage: mailsign domainkey sign -domain domain -selector selector -key file [-c simple|nofws] [-headers A,B] [message]
	  -c string
	    	canonicalization (default "simple")
	  -domain string
	    	domain to sign for, required
	  -headers string
	    	comma-separated header names to sign
	  -key string
	    	file with pem private key, required
	  -selector string
	    	selector of the public key in dns, required

# mailsign domainkey txt

Print a DomainKeys DNS TXT record with the public key derived from the private key read from stdin.

DKIM and DomainKeys records are published at the same name. When the same key
and selector are used for both, the DKIM record is sufficient.

	usage: mailsign domainkey txt [-testing] <$selector._domainkey.$domain.key.pkcs8.pem
	  -testing
	    	add t=y, indicating the domain is testing domainkeys

# mailsign canonicalize dkim

Print the DKIM canonical form of the headers and body of a message.

The canonicalized headers are printed as they would be signed, without
DKIM-Signature header, followed by an empty line and the canonicalized body
that is hashed for the bh= tag. Useful for finding why a signature does not
verify.

	usage: mailsign canonicalize dkim [-c header/body] [-headers A,B] [message]
	  -c string
	    	canonicalization (default "relaxed/relaxed")

# mailsign canonicalize domainkey

Print the DomainKeys canonical form of a message, as it would be signed.

	usage: mailsign canonicalize domainkey [-c simple|nofws] [-headers A,B] [message]
	  -c string
	    	canonicalization (default "simple")
	  -headers string
	    	comma-separated header names, all headers if empty

# mailsign config test

Parses and validates the configuration file, and loads the private keys.

If valid, the command exits with status 0. If not valid, all errors encountered
are printed.

	usage: mailsign config test

# mailsign config describe

Prints an annotated empty configuration for use as mailsign.conf.

This configuration file needs modifications to make it valid. For example, it
may contain unfinished list items.

	usage: mailsign config describe >mailsign.conf

# mailsign version

Prints this mailsign version.

	usage: mailsign version

# mailsign help

Prints help about matching commands.

If multiple commands match, they are listed along with the first line of their help text.
If a single command matches, its usage and full help text is printed.

	usage: mailsign help [command ...]
*/
package main

// NOTE: DO NOT EDIT, this file is generated by gendoc.sh.
