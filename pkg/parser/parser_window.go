package parser

import "github.com/leapstack-labs/ctxpack/pkg/token"

// Window grammar:
//
//	window_ref  → name | ( window_spec )
//	window_spec → [name] [PARTITION BY expr_list] [ORDER BY order_list] [frame]
//	frame       → (ROWS | RANGE | GROUPS) (bound | BETWEEN bound AND bound)
//	bound       → UNBOUNDED (PRECEDING | FOLLOWING) | CURRENT ROW
//	            | expr (PRECEDING | FOLLOWING)
//	window_defs → name AS ( window_spec ) [, name AS ( window_spec )]*

func (p *Parser) parseWindowRef() *WindowSpec {
	if !p.check(token.LPAREN) {
		return &WindowSpec{Name: p.parseIdent()}
	}
	return p.parseWindowSpec()
}

func (p *Parser) parseWindowSpec() *WindowSpec {
	p.expect(token.LPAREN)
	spec := &WindowSpec{}

	if isIdentLike(p.token) && !p.isFrameStart() {
		spec.Name = p.parseIdent()
	}
	if p.check(token.PARTITION) {
		p.nextToken()
		p.expect(token.BY)
		spec.PartitionBy = p.parseExprList()
	}
	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		spec.OrderBy = p.parseOrderByList()
	}
	if p.isFrameStart() {
		spec.Frame = p.parseFrame()
	}

	p.expect(token.RPAREN)
	return spec
}

func (p *Parser) isFrameStart() bool {
	switch p.token.Type {
	case token.ROWS, token.RANGE, token.GROUPS:
		return true
	}
	return false
}

func (p *Parser) parseFrame() *FrameSpec {
	frame := &FrameSpec{Type: FrameType(p.token.Type.String())}
	p.nextToken()

	if p.match(token.BETWEEN) {
		frame.Start = p.parseFrameBound()
		p.expect(token.AND)
		frame.End = p.parseFrameBound()
	} else {
		frame.Start = p.parseFrameBound()
	}
	return frame
}

func (p *Parser) parseFrameBound() *FrameBound {
	switch {
	case p.match(token.UNBOUNDED):
		if p.match(token.PRECEDING) {
			return &FrameBound{Type: FrameUnboundedPreceding}
		}
		p.expect(token.FOLLOWING)
		return &FrameBound{Type: FrameUnboundedFollowing}
	case p.match(token.CURRENT):
		p.expect(token.ROW)
		return &FrameBound{Type: FrameCurrentRow}
	}

	bound := &FrameBound{Offset: p.parseExprPrec(precAddition)}
	if p.match(token.PRECEDING) {
		bound.Type = FrameExprPreceding
	} else {
		p.expect(token.FOLLOWING)
		bound.Type = FrameExprFollowing
	}
	return bound
}

func (p *Parser) parseWindowDefs() []*WindowDef {
	var defs []*WindowDef
	for !p.failed() {
		def := &WindowDef{Name: p.parseIdent()}
		p.expect(token.AS)
		def.Spec = p.parseWindowSpec()
		defs = append(defs, def)
		if !p.match(token.COMMA) {
			break
		}
	}
	return defs
}
