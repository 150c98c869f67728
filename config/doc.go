/*
Package config holds the configuration file definitions.

Mailsign uses a single config file, mailsign.conf. It configures the signing
domain, and a DKIM signer, a DomainKeys signer, or both. The private key files
it references are loaded when the config is parsed.

Below is an "empty" config file, generated from the config file definitions in
the source code, along with comments explaining the fields. Fields named "x" are
placeholders for user-chosen map keys.

# sconf

The config file is in "sconf" format. Properties of sconf files:

  - Indentation with tabs only.
  - "#" as first non-whitespace character makes the line a comment. Lines with a
    value cannot also have a comment.
  - Values don't have syntax indicating their type. For example, strings are
    not quoted/escaped and can never span multiple lines.
  - Fields that are optional can be left out completely. But the value of an
    optional field may itself have required fields.

See https://pkg.go.dev/github.com/mjl-/sconf for details.

# mailsign.conf

	# NOTE: This config file is in 'sconf' format. Indent with tabs. Comments must be
	# on their own line, they don't end a line. Do not escape or quote strings.
	# Details: https://pkg.go.dev/github.com/mjl-/sconf.


	# Default log level, one of: error, info, debug, trace. Trace logs the
	# canonicalized message data that is signed. Default: error. (optional)
	LogLevel:

	# Overrides of log level per package (e.g. dkim, domainkey, sign). (optional)
	PackageLogLevels:
		x:

	# Character set for turning canonicalized message text into bytes before hashing
	# and signing, e.g. utf-8 or iso-8859-1. Default: utf-8. (optional)
	Charset:

	# Maximum size in bytes of messages to sign. Messages are read into memory
	# completely before signing. Default: 104857600 (100MB). (optional)
	MaxMessageSize: 0

	# Domain to sign for, the d= tag. Can be an internationalized domain name.
	Domain:

	# DKIM signing, RFC 6376. At least one of DKIM and DomainKey must be configured.
	# (optional)
	DKIM:

		# Selector the public key is published under, at <selector>._domainkey.<domain>.
		Selector:

		# File with PEM-encoded RSA private key, in PKCS#1, PKCS#8 or OpenSSH format. If
		# this is a relative path, it is relative to the directory of mailsign.conf.
		PrivateKeyFile:

		# Signing algorithm, rsa-sha256 or rsa-sha1. Default: rsa-sha256. (optional)
		Algorithm:

		# Headers to sign, in order. Must include From. All headers must be present in
		# messages that are signed.
		Headers:
			-

		# Canonicalization for header and body, as in the c= tag, e.g. relaxed/relaxed.
		# Default: simple/simple. (optional)
		Canonicalization:

	# DomainKeys signing, RFC 4870. Only needed for receivers that still verify
	# DomainKeys signatures. The DomainKey-Signature header is added after the
	# DKIM-Signature header, and covers it when Headers is empty. (optional)
	DomainKey:

		# Selector the public key is published under, at <selector>._domainkey.<domain>.
		# Can be the same as for DKIM.
		Selector:

		# File with PEM-encoded RSA private key. If the same file is used for DKIM, the
		# key is loaded once. If this is a relative path, it is relative to the directory
		# of mailsign.conf.
		PrivateKeyFile:

		# Headers to sign, in order. Headers not present in a message are skipped. If
		# empty, all headers are signed, and the h= tag is left out. (optional)
		Headers:
			-

		# Canonicalization, simple or nofws. Default: simple. (optional)
		Canonicalization:

# Examples

Signing with both DKIM and DomainKeys, with a single key:

	Domain: example.com
	DKIM:
		Selector: 2024a
		PrivateKeyFile: 2024a.rsa.privatekey.pkcs8.pem
		Headers:
			- From
			- To
			- Subject
			- Date
		Canonicalization: relaxed/relaxed
	DomainKey:
		Selector: 2024a
		PrivateKeyFile: 2024a.rsa.privatekey.pkcs8.pem
		Canonicalization: nofws
*/
package config
