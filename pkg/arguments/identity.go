package arguments

// Resolver maps a raw identity token (a mention, a user tag, whatever the
// transport uses) to a canonical identity string. Exactly one strategy is
// active per deployment; channel adapters provide theirs.
type Resolver func(token string) (string, error)

// IdentityArgument validates one token as a reference to a known identity.
// The token syntax is transport-specific and fully delegated to the
// configured Resolver; the resolved canonical identity is the value.
type IdentityArgument struct {
	base
	resolve Resolver
}

// Identity creates an identity argument backed by the given resolver.
func Identity(name string, resolve Resolver) *IdentityArgument {
	return &IdentityArgument{base: newBase(name), resolve: resolve}
}

// Display sets the name rendered in usage strings.
func (a *IdentityArgument) Display(name string) *IdentityArgument {
	a.displayName = name
	return a
}

// Optional makes the argument fall back to the given identity when it fails
// to parse.
func (a *IdentityArgument) Optional(fallback string) *IdentityArgument {
	a.setOptional(fallback)
	return a
}

// Validate consumes one token and resolves it to a canonical identity.
func (a *IdentityArgument) Validate(remainder string) (any, string, error) {
	token, rest := splitToken(remainder)
	if token == "" {
		return nil, "", fail(a, "expected an identity reference")
	}
	if a.resolve == nil {
		return nil, "", fail(a, "no identity resolver configured")
	}
	identity, err := a.resolve(token)
	if err != nil {
		return nil, "", fail(a, "%q is not a valid identity reference", token)
	}
	return identity, rest, nil
}
