// Package zkh scrapes meter readings and tariff rates out of the
// utility-billing portal's personal account pages. The portal has no
// machine API: authentication is a session-cookie/form-token handshake
// against its login form and the data is HTML tables.
package zkh

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"zkhmon-backend/lib/htmljson"
	"zkhmon-backend/lib/restyutil"
	"zkhmon-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	loginPagePath = "login.action"
	loginPath     = "doLogin!enter.action"
	mainPath      = "main.action"
	tariffsPath   = "tariffs.action"
	countersPath  = "counters.action"

	sessionCookie = "JSESSIONID"

	loginTokenSelector = "#loginForm input[name=loginToken]"
)

type sessionState int

const (
	stateUnauthenticated sessionState = iota
	statePreflighted
	stateLoggedIn
)

// Session is the in-memory state carried between the handshake steps.
// Id may be empty after preflight, some deployments only assign the
// session cookie at login time.
type Session struct {
	Id        string
	FormToken string
}

// Client performs one scrape cycle against the portal. It is not safe
// for concurrent use and is meant to be created fresh per cycle and
// closed when the cycle ends.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	username string
	password string

	state   sessionState
	session Session
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	// InstrumentOutput, when set, dumps every request/response pair for
	// debugging instead of the default span-only instrumentation.
	InstrumentOutput restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	// the login response's own status and Set-Cookie headers are the
	// signal, following its redirect would discard both
	client.GetClient().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	if opts.InstrumentOutput != nil {
		restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)
	} else {
		telemetry.InstrumentResty(client, "zkhmon.lib.scrapers.zkh.http")
	}

	c := &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		username: opts.Username,
		password: opts.Password,
	}
	return c, nil
}

// Session exposes the current handshake state, mostly for tests.
func (c *Client) Session() Session {
	return c.session
}

// Close releases the network resources held by the cycle. Safe on every
// exit path.
func (c *Client) Close() {
	c.Http.GetClient().CloseIdleConnections()
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.BaseUrl.ResolveReference(ref).String()
}

// Preflight fetches the login page, capturing the initial session cookie
// and the anti-forgery token embedded in the login form.
func (c *Client) Preflight(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Preflight")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginPagePath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	if res.StatusCode() != http.StatusOK {
		err := &PreflightError{Reason: "unexpected login page status", StatusCode: res.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	sessionId := sessionIdFromHeaders(res.Header().Values("Set-Cookie"))
	if sessionId == "" {
		// tolerated: the login response usually assigns one
		slog.WarnContext(ctx, "no session id in preflight response")
	}

	doc, err := htmljson.Parse(res.String())
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page html")
		return err
	}
	formToken := htmljson.Simple(doc, loginTokenSelector, "value")
	if formToken == "" {
		err := &PreflightError{Reason: "login token not found in page"}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.session = Session{Id: sessionId, FormToken: formToken}
	c.state = statePreflighted
	return nil
}

// Login submits the portal's login form. It requires a completed
// preflight: both the form token and the preflight session id go into
// the submission.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if c.state != statePreflighted || c.session.FormToken == "" {
		err := &SequenceError{Op: "login", Missing: "form token from preflight"}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if c.session.Id == "" {
		err := &SequenceError{Op: "login", Missing: "session id from preflight"}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	form := url.Values{}
	form.Set("struts.token.name", "loginToken")
	form.Set("loginToken", c.session.FormToken)
	form.Set("userName", c.username)
	form.Set("userPass", c.password)
	form.Set("captchaCode", "x")
	form.Set("timezone", "-420")
	form.Set("loginModule", "lk")

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Origin", strings.TrimSuffix(c.BaseUrl.String(), "/")).
		SetHeader("Referer", c.resolve(loginPagePath)).
		SetHeader("Cookie", fmt.Sprintf("%s=%s;", sessionCookie, c.session.Id)).
		SetBody(form.Encode()).
		Post(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	// the portal rotates the session id once authenticated, keep the
	// preflight one when it doesn't
	if rotated := sessionIdFromHeaders(res.Header().Values("Set-Cookie")); rotated != "" {
		c.session.Id = rotated
		slog.DebugContext(ctx, "session id rotated after login")
	}

	if res.StatusCode() != http.StatusOK && res.StatusCode() != http.StatusFound {
		body := res.String()
		if len(body) > 500 {
			body = body[:500]
		}
		slog.ErrorContext(ctx, "login rejected", "status", res.StatusCode(), "body", body)
		err := &LoginError{StatusCode: res.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.state = stateLoggedIn
	return nil
}

// sessionIdFromHeaders scans Set-Cookie directives for the session
// cookie. Format: JSESSIONID=value; Path=/; ...
func sessionIdFromHeaders(cookies []string) string {
	for _, cookie := range cookies {
		if !strings.Contains(cookie, sessionCookie+"=") {
			continue
		}
		for _, part := range strings.Split(cookie, ";") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, sessionCookie+"=") {
				return strings.SplitN(part, "=", 2)[1]
			}
		}
	}
	return ""
}

// authenticatedCookieHeader builds the cookie set the data pages expect.
func (c *Client) authenticatedCookieHeader() string {
	pairs := []string{
		"userLogin=" + c.username,
		"loginModule=lk",
	}
	if c.session.Id != "" {
		pairs = append(pairs, sessionCookie+"="+c.session.Id)
	}
	return strings.Join(pairs, "; ") + ";"
}
