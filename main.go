package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/mjl-/sconf"

	"github.com/mjl-/mailsign/canon"
	"github.com/mjl-/mailsign/config"
	"github.com/mjl-/mailsign/dkim"
	"github.com/mjl-/mailsign/domainkey"
	"github.com/mjl-/mailsign/keys"
	"github.com/mjl-/mailsign/mailsignvar"
	"github.com/mjl-/mailsign/message"
	"github.com/mjl-/mailsign/metrics"
	"github.com/mjl-/mailsign/mlog"
)

func envString(k, def string) string {
	s := os.Getenv(k)
	if s == "" {
		return def
	}
	return s
}

var commands = []struct {
	cmd string
	fn  func(c *cmd)
}{
	{"sign", cmdSign},
	{"dkim sign", cmdDKIMSign},
	{"dkim txt", cmdDKIMTXT},
	{"dkim genrsa", cmdDKIMGenrsa},
	{"domainkey sign", cmdDomainKeySign},
	{"domainkey txt", cmdDomainKeyTXT},
	{"canonicalize dkim", cmdCanonicalizeDKIM},
	{"canonicalize domainkey", cmdCanonicalizeDomainKey},
	{"config test", cmdConfigTest},
	{"config describe", cmdConfigDescribe},
	{"version", cmdVersion},
	{"help", cmdHelp},

	// Not listed.
	{"helpall", cmdHelpall},
}

var cmds []cmd

func init() {
	for _, xc := range commands {
		c := cmd{words: strings.Split(xc.cmd, " "), fn: xc.fn}
		cmds = append(cmds, c)
	}
}

type cmd struct {
	words []string
	fn    func(c *cmd)

	// Set before calling command.
	flag     *flag.FlagSet
	flagArgs []string
	_gather  bool // Set when using Parse to gather usage for a command.

	// Set by invoked command or Parse.
	unlisted bool   // If set, command is not listed until at least some words are matched from command.
	params   string // Arguments to command. Multiple lines possible.
	help     string // Additional explanation. First line is synopsis, the rest is only printed for an explicit help/usage for that command.
	args     []string

	log *mlog.Log
}

func (c *cmd) Parse() []string {
	// To gather params and usage information, we just run the command but cause this
	// panic after the command has registered its flags and set its params and help
	// information. This is then caught and that info printed.
	if c._gather {
		panic("gather")
	}

	c.flag.Usage = c.Usage
	c.flag.Parse(c.flagArgs)
	c.args = c.flag.Args()
	return c.args
}

func (c *cmd) gather() {
	c.flag = flag.NewFlagSet("mailsign "+strings.Join(c.words, " "), flag.ExitOnError)
	c._gather = true
	defer func() {
		x := recover()
		// panic generated by Parse.
		if x != "gather" {
			panic(x)
		}
	}()
	c.fn(c)
}

func (c *cmd) makeUsage() string {
	var r strings.Builder
	cs := "mailsign " + strings.Join(c.words, " ")
	for i, line := range strings.Split(strings.TrimSpace(c.params), "\n") {
		s := ""
		if i == 0 {
			s = "usage:"
		}
		if line != "" {
			line = " " + line
		}
		fmt.Fprintf(&r, "%6s %s%s\n", s, cs, line)
	}
	c.flag.SetOutput(&r)
	c.flag.PrintDefaults()
	return r.String()
}

func (c *cmd) printUsage() {
	fmt.Fprint(os.Stderr, c.makeUsage())
	if c.help != "" {
		fmt.Fprint(os.Stderr, "\n"+c.help+"\n")
	}
}

func (c *cmd) Usage() {
	c.printUsage()
	os.Exit(2)
}

func cmdHelp(c *cmd) {
	c.params = "[command ...]"
	c.help = `Prints help about matching commands.

If multiple commands match, they are listed along with the first line of their help text.
If a single command matches, its usage and full help text is printed.
`
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}

	prefix := func(l, pre []string) bool {
		if len(pre) > len(l) {
			return false
		}
		return slices.Equal(pre, l[:len(pre)])
	}

	var partial []cmd
	for _, c := range cmds {
		if slices.Equal(c.words, args) {
			c.gather()
			fmt.Print(c.makeUsage())
			if c.help != "" {
				fmt.Print("\n" + c.help + "\n")
			}
			return
		} else if prefix(c.words, args) {
			partial = append(partial, c)
		}
	}
	if len(partial) == 0 {
		fmt.Fprintf(os.Stderr, "%s: unknown command\n", strings.Join(args, " "))
		os.Exit(2)
	}
	for _, c := range partial {
		c.gather()
		line := "mailsign " + strings.Join(c.words, " ")
		fmt.Printf("%s\n", line)
		if c.help != "" {
			fmt.Printf("\t%s\n", strings.Split(c.help, "\n")[0])
		}
	}
}

func cmdHelpall(c *cmd) {
	c.unlisted = true
	c.help = `Print all detailed usage and help information for all listed commands.

Used to generate documentation.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	n := 0
	for _, c := range cmds {
		c.gather()
		if c.unlisted {
			continue
		}
		if n > 0 {
			fmt.Fprintf(os.Stderr, "\n")
		}
		n++

		fmt.Fprintf(os.Stderr, "# mailsign %s\n\n", strings.Join(c.words, " "))
		if c.help != "" {
			fmt.Fprintln(os.Stderr, c.help+"\n")
		}
		s := c.makeUsage()
		s = "\t" + strings.ReplaceAll(s, "\n", "\n\t")
		fmt.Fprintln(os.Stderr, s)
	}
}

func usage(l []cmd, unlisted bool) {
	var lines []string
	if !unlisted {
		lines = append(lines, "mailsign [-config mailsign.conf] [-loglevel level] [-metricsfile file] ...")
	}
	for _, c := range l {
		c.gather()
		if c.unlisted && !unlisted {
			continue
		}
		for _, line := range strings.Split(c.params, "\n") {
			x := append([]string{"mailsign"}, c.words...)
			if line != "" {
				x = append(x, line)
			}
			lines = append(lines, strings.Join(x, " "))
		}
	}
	for i, line := range lines {
		pre := "       "
		if i == 0 {
			pre = "usage: "
		}
		fmt.Fprintln(os.Stderr, pre+line)
	}
	os.Exit(2)
}

var configPath string
var loglevel string // Empty means the log levels from the config file, or error.
var metricsFile string

// setLogLevels applies the log levels from the -loglevel flag on top of levels
// from the config file.
func setLogLevels(base map[string]mlog.Level) {
	levels := map[string]mlog.Level{"": mlog.LevelError}
	for pkg, level := range base {
		levels[pkg] = level
	}
	if loglevel != "" {
		l, err := mlog.ParseLevels(loglevel)
		xcheckf(err, "parsing -loglevel")
		for pkg, level := range l {
			levels[pkg] = level
		}
	}
	mlog.SetConfig(levels)
}

// mustLoadConfig loads the config file, or exits with all errors found.
func mustLoadConfig() *config.Config {
	conf, errs := config.ParseConfig(configPath)
	if len(errs) > 1 {
		log.Printf("multiple errors:")
		for _, err := range errs {
			log.Printf("%s", err)
		}
		os.Exit(1)
	} else if len(errs) == 1 {
		log.Fatalf("%s", errs[0])
	}
	setLogLevels(conf.Log)
	return conf
}

func main() {
	log.SetFlags(0)

	flag.StringVar(&configPath, "config", envString("MAILSIGNCONF", "mailsign.conf"), "configuration file, key files are looked up relative to its directory, defaults to $MAILSIGNCONF with a fallback to mailsign.conf")
	flag.StringVar(&loglevel, "loglevel", "", "if non-empty, log levels to set, e.g. debug or info,dkim:trace; overrides levels from the config file")
	flag.StringVar(&metricsFile, "metricsfile", "", "if non-empty, write prometheus metrics to this file after the command, for the node exporter textfile collector")

	flag.Usage = func() { usage(cmds, false) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage(cmds, false)
	}

	setLogLevels(nil)

	defer func() {
		x := recover()
		if x == nil {
			return
		}
		metrics.PanicInc("main")
		writeMetrics()
		panic(x)
	}()

	var partial []cmd
next:
	for _, c := range cmds {
		for i, w := range c.words {
			if i >= len(args) || w != args[i] {
				if i > 0 {
					partial = append(partial, c)
				}
				continue next
			}
		}
		c.flag = flag.NewFlagSet("mailsign "+strings.Join(c.words, " "), flag.ExitOnError)
		c.flagArgs = args[len(c.words):]
		c.log = mlog.New(strings.Join(c.words, ""))
		c.fn(&c)
		writeMetrics()
		return
	}
	if len(partial) > 0 {
		usage(partial, true)
	}
	usage(cmds, false)
}

func writeMetrics() {
	if metricsFile == "" {
		return
	}
	err := metrics.WriteTextfile(metricsFile)
	xcheckf(err, "writing metrics")
}

func xcheckf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Fatalf("%s: %s", msg, err)
}

// readMessage reads the message from the file in args, or stdin without args.
// Bare newlines are replaced with CRLF. Messages larger than maxSize bytes are
// refused.
func readMessage(c *cmd, args []string, maxSize int64) string {
	if len(args) > 1 {
		c.Usage()
	}
	r := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		xcheckf(err, "open message")
		defer f.Close()
		r = f
	}
	var b bytes.Buffer
	w := message.NewWriter(&b)
	_, err := io.Copy(w, &message.LimitReader{R: r, Limit: maxSize})
	xcheckf(err, "reading message")
	c.log.Debug("read message", mlog.Field("size", w.Size), mlog.Field("8bit", w.Has8bit))
	return b.String()
}

// xcheckMultipart exits if msg is a multipart message, unless force is set.
func xcheckMultipart(msg string, force bool) {
	e, err := message.Parse(msg)
	xcheckf(err, "parsing message")
	if e.IsMultipart() && !force {
		log.Fatalf("message is multipart, signatures are invalidated by software regenerating mime boundaries; use -force to sign anyway")
	}
}

func xsplitHeaders(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func xwrite(s string) {
	_, err := fmt.Fprint(os.Stdout, s)
	xcheckf(err, "write")
}

func cmdSign(c *cmd) {
	c.params = "[-force] [message]"
	var force bool
	c.flag.BoolVar(&force, "force", false, "also sign multipart messages")
	c.help = `Sign a message with the signers from the configuration file.

The message is read from the file, or from stdin. A DKIM-Signature header is
added first, then a DomainKey-Signature header, for the signers that are
configured. The signed message is written to stdout.

Multipart messages are refused unless -force is set: mail software that
regenerates MIME boundaries invalidates the signatures.
`
	args := c.Parse()
	conf := mustLoadConfig()
	msg := readMessage(c, args, conf.MaxMessageSize)
	xcheckMultipart(msg, force)

	ctx := context.WithValue(context.Background(), mlog.CidKey, mlog.Cid())
	signed, err := conf.Signer().Sign(ctx, msg)
	xcheckf(err, "signing message")
	xwrite(signed)
}

// signerFlags are flags shared by the dkim and domainkey commands.
type signerFlags struct {
	domain   string
	selector string
	keyFile  string
	canon    string
	headers  string
}

func (f *signerFlags) register(c *cmd, canonDefault, headersDefault string) {
	c.flag.StringVar(&f.domain, "domain", "", "domain to sign for, required")
	c.flag.StringVar(&f.selector, "selector", "", "selector of the public key in dns, required")
	c.flag.StringVar(&f.keyFile, "key", "", "file with pem private key, required")
	c.flag.StringVar(&f.canon, "c", canonDefault, "canonicalization")
	c.flag.StringVar(&f.headers, "headers", headersDefault, "comma-separated header names to sign")
}

func (f *signerFlags) xcheck(c *cmd) {
	if f.domain == "" || f.selector == "" || f.keyFile == "" {
		c.Usage()
	}
}

func cmdDKIMSign(c *cmd) {
	c.params = "-domain domain -selector selector -key file [-algorithm alg] [-c header/body] [-headers A,B] [message]"
	var f signerFlags
	f.register(c, "relaxed/relaxed", "From,To,Subject")
	var algorithm string
	c.flag.StringVar(&algorithm, "algorithm", string(keys.RSASHA256), "rsa-sha256 or rsa-sha1")
	c.help = `Sign a message with DKIM, without configuration file.

The message is read from the file, or from stdin, and printed with a
DKIM-Signature header prepended. All headers to sign must be present in the
message.
`
	args := c.Parse()
	f.xcheck(c)

	alg, err := keys.ParseAlgorithm(algorithm)
	xcheckf(err, "parsing algorithm")
	key, err := keys.Load(f.keyFile, alg)
	xcheckf(err, "loading key")
	hc, bc, err := canon.ParseDKIMCanonicalization(f.canon)
	xcheckf(err, "parsing canonicalization")
	s, err := dkim.NewSigner(key, f.domain, f.selector, xsplitHeaders(f.headers), dkim.Options{HeaderCanonicalization: hc, BodyCanonicalization: bc})
	xcheckf(err, "making dkim signer")

	msg := readMessage(c, args, message.DefaultMaxSize)
	signed, err := s.Sign(context.Background(), msg)
	xcheckf(err, "signing message with dkim")
	xwrite(signed)
}

func cmdDomainKeySign(c *cmd) {
	c.params = "-domain domain -selector selector -key file [-c simple|nofws] [-headers A,B] [message]"
	var f signerFlags
	f.register(c, string(canon.DomainKeySimple), "")
	c.help = `Sign a message with DomainKeys, without configuration file.

The message is read from the file, or from stdin, and printed with a
DomainKey-Signature header prepended. Without -headers, all headers are signed.
`
	args := c.Parse()
	f.xcheck(c)

	key, err := keys.Load(f.keyFile, keys.RSASHA1)
	xcheckf(err, "loading key")
	alg, err := canon.ParseDomainKeyAlgorithm(f.canon)
	xcheckf(err, "parsing canonicalization")
	s, err := domainkey.NewSigner(key, f.domain, f.selector, xsplitHeaders(f.headers), domainkey.Options{Canonicalization: alg})
	xcheckf(err, "making domainkey signer")

	msg := readMessage(c, args, message.DefaultMaxSize)
	signed, err := s.Sign(context.Background(), msg)
	xcheckf(err, "signing message with domainkey")
	xwrite(signed)
}

func cmdCanonicalizeDKIM(c *cmd) {
	c.params = "[-c header/body] [-headers A,B] [message]"
	var canonicalization, headers string
	c.flag.StringVar(&canonicalization, "c", "relaxed/relaxed", "canonicalization")
	c.flag.StringVar(&headers, "headers", "From,To,Subject", "comma-separated header names")
	c.help = `Print the DKIM canonical form of the headers and body of a message.

The canonicalized headers are printed as they would be signed, without
DKIM-Signature header, followed by an empty line and the canonicalized body
that is hashed for the bh= tag. Useful for finding why a signature does not
verify.
`
	args := c.Parse()
	msg := readMessage(c, args, message.DefaultMaxSize)

	hc, bc, err := canon.ParseDKIMCanonicalization(canonicalization)
	xcheckf(err, "parsing canonicalization")
	e, err := message.Parse(msg)
	xcheckf(err, "parsing message")
	h, err := canon.DKIMHeaders(e.Headers, hc, false, xsplitHeaders(headers))
	xcheckf(err, "canonicalizing headers")
	b, err := canon.DKIMBody(e.Body, bc)
	xcheckf(err, "canonicalizing body")
	xwrite(h + "\r\n" + b)
}

func cmdCanonicalizeDomainKey(c *cmd) {
	c.params = "[-c simple|nofws] [-headers A,B] [message]"
	var canonicalization, headers string
	c.flag.StringVar(&canonicalization, "c", string(canon.DomainKeySimple), "canonicalization")
	c.flag.StringVar(&headers, "headers", "", "comma-separated header names, all headers if empty")
	c.help = `Print the DomainKeys canonical form of a message, as it would be signed.`
	args := c.Parse()
	msg := readMessage(c, args, message.DefaultMaxSize)

	alg, err := canon.ParseDomainKeyAlgorithm(canonicalization)
	xcheckf(err, "parsing canonicalization")
	e, err := message.Parse(msg)
	xcheckf(err, "parsing message")
	s, err := canon.DomainKey(e, alg, xsplitHeaders(headers))
	xcheckf(err, "canonicalizing")
	xwrite(s)
}

// printTXT prints a TXT record value in strings of at most 100 characters.
func printTXT(record string) {
	fmt.Print("<selector>._domainkey.<your.domain.> TXT ")
	for record != "" {
		s := record
		if len(s) > 100 {
			s, record = record[:100], record[100:]
		} else {
			record = ""
		}
		fmt.Printf(`"%s" `, s)
	}
	fmt.Println("")
}

func cmdDKIMTXT(c *cmd) {
	c.params = "<$selector._domainkey.$domain.key.pkcs8.pem"
	c.help = `Print a DKIM DNS TXT record with the public key derived from the private key read from stdin.

The DNS should be configured as a TXT record at $selector._domainkey.$domain.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	buf, err := io.ReadAll(os.Stdin)
	xcheckf(err, "reading private key from stdin")
	key, err := keys.Parse(buf, keys.RSASHA256)
	xcheckf(err, "parsing private key")

	r := dkim.Record{
		Hashes:    []string{"sha256", "sha1"},
		Flags:     []string{"s"},
		PublicKey: key.Public(),
	}
	record, err := r.Record()
	xcheckf(err, "making record")
	printTXT(record)
}

func cmdDomainKeyTXT(c *cmd) {
	c.params = "[-testing] <$selector._domainkey.$domain.key.pkcs8.pem"
	var testing bool
	c.flag.BoolVar(&testing, "testing", false, "add t=y, indicating the domain is testing domainkeys")
	c.help = `Print a DomainKeys DNS TXT record with the public key derived from the private key read from stdin.

DKIM and DomainKeys records are published at the same name. When the same key
and selector are used for both, the DKIM record is sufficient.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	buf, err := io.ReadAll(os.Stdin)
	xcheckf(err, "reading private key from stdin")
	key, err := keys.Parse(buf, keys.RSASHA1)
	xcheckf(err, "parsing private key")

	record, err := domainkey.Record{Testing: testing, PublicKey: key.Public()}.Record()
	xcheckf(err, "making record")
	printTXT(record)
}

func cmdDKIMGenrsa(c *cmd) {
	c.params = "[-bits n] >$selector._domainkey.$domain.rsa2048.privatekey.pkcs8.pem"
	bits := 2048
	c.flag.IntVar(&bits, "bits", bits, "size of key in bits")
	c.help = `Generate a new RSA private key for use with DKIM and DomainKeys.

The generated file is in PEM format, and has a comment it is generated for use
with DKIM and DomainKeys, by mailsign.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	buf, err := keys.GenerateRSA(bits)
	xcheckf(err, "making rsa private key")
	_, err = os.Stdout.Write(buf)
	xcheckf(err, "writing rsa private key")
}

func cmdConfigTest(c *cmd) {
	c.help = `Parses and validates the configuration file, and loads the private keys.

If valid, the command exits with status 0. If not valid, all errors encountered
are printed.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	conf := mustLoadConfig()
	if conf.DKIM != nil {
		fmt.Printf("dkim signer for %s\n", conf.DKIM.Domain())
	}
	if conf.DomainKey != nil {
		fmt.Printf("domainkey signer for %s\n", conf.DomainKey.Domain())
	}
	fmt.Println("config OK")
}

func cmdConfigDescribe(c *cmd) {
	c.params = ">mailsign.conf"
	c.help = `Prints an annotated empty configuration for use as mailsign.conf.

This configuration file needs modifications to make it valid. For example, it
may contain unfinished list items.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	var sc config.Static
	err := sconf.Describe(os.Stdout, &sc)
	xcheckf(err, "describing config")
}

func cmdVersion(c *cmd) {
	c.help = "Prints this mailsign version."
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	fmt.Println(mailsignvar.Version)
	fmt.Printf("%s/%s\n", runtime.GOOS, runtime.GOARCH)
}
