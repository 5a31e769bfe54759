package place

import (
	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

// maxPlaceIter bounds the fixed-point loops in the row placement; the
// loops normally converge in one or two rounds.
const maxPlaceIter = 100

// RowGraphs holds the wire graphs of one placed row, for inspection and
// rendering.
type RowGraphs struct {
	Bot *wires.WireGraph
	Mid *wires.WireGraph
	Top *wires.WireGraph
}

// RowsOptions configures PlaceRows.
type RowsOptions struct {
	// TotHeightMin is the minimum total height of the row stack.
	TotHeightMin int
	// TotHeightPitch quantizes the total height; defaults to the
	// technology block pitch when zero.
	TotHeightPitch int
	// BotMirror requires the bottom row to tolerate its own mirror image
	// across the bottom boundary; TopMirror likewise for the top row.
	BotMirror bool
	TopMirror bool
	// Shift moves the bottom row's non-shared source wires up.
	Shift track.HalfInt
	// Options are passed through to the technology's row queries.
	Options mos.Params
}

// PlaceRows stacks the given rows bottom-up as compactly as the
// technology allows. Each row's bottom wires are pushed down against
// the row's connection intervals, the device block is raised just far
// enough to reach them, and extension regions between rows are
// quantized to the technology's legal heights. The returned placements
// start at y=0.
func PlaceRows(tm *track.Manager, tech mos.Tech, rowSpecs []mos.RowSpec,
	opts RowsOptions) ([]RowPlaceInfo, []RowGraphs, error) {
	if len(rowSpecs) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidSpec, "cannot place an empty row list")
	}

	grid := tm.Grid()
	blkH := tech.BlkHPitch()
	connLayer := tech.ConnLayer()
	hmLayer := connLayer + 1
	connSpLE := grid.LineEndSpace(connLayer, 1, false)
	totPitch := opts.TotHeightPitch
	if totPitch <= 0 {
		totPitch = blkH
	}

	pspecs, err := buildRowPlaceSpecs(tech, rowSpecs, opts.Options)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]RowPlaceInfo, 0, len(pspecs))
	graphs := make([]RowGraphs, 0, len(pspecs))

	var prevWG *wires.WireGraph
	var prevExt *mos.RowExtInfo
	prevExtH := 0
	ytopPrev := 0
	ytopConnPrev := coordMin

	for idx := range pspecs {
		ps := &pspecs[idx]
		ignoreBot := ps.spec.IgnoreBotVMSpLE()
		blkHgt := ps.info.Height
		isTopRow := idx == len(pspecs)-1

		botWG, err := wires.MakeWireGraph(hmLayer, tm, ps.spec.BotWires)
		if err != nil {
			return nil, nil, err
		}
		midWG, err := wires.MakeWireGraph(hmLayer, tm, ps.spec.MidWires)
		if err != nil {
			return nil, nil, err
		}
		topWG, err := wires.MakeWireGraph(hmLayer, tm, ps.spec.TopWires)
		if err != nil {
			return nil, nil, err
		}

		if idx == 0 {
			err = botWG.PlaceCompact(hmLayer, tm, wires.PlaceCompactOptions{
				BotMirror: opts.BotMirror, Shift: opts.Shift})
		} else {
			err = botWG.PlaceCompact(hmLayer, tm, wires.PlaceCompactOptions{Prev: prevWG})
		}
		if err != nil {
			return nil, nil, err
		}

		// raise the device block until every bottom wire can reach its
		// connection interval with a via
		ycur := ytopPrev
		for ptype, bnds := range botWG.PlacementBounds(hmLayer, grid, true) {
			wt, err := mos.ParseWireType(ptype)
			if err != nil {
				return nil, nil, err
			}
			cy, ok := ps.botConnY[wt]
			if !ok {
				return nil, nil, errors.New(errors.ErrCodeInvalidSpec,
					"wire type %s cannot appear on the bottom of row %d", wt, idx)
			}
			top := bnds[1]
			vmExt := grid.ViaExtension(track.Lower, connLayer, 1, top.Width)
			_, yw := grid.WireBounds(hmLayer, top.Track, top.Width)
			if v := yw + vmExt - cy.Hi; v > ycur {
				ycur = v
			}
		}
		ycur = divCeil(ycur, blkH) * blkH

		// quantize the extension below this row to a legal height
		var extWInfo mos.ExtWidthInfo
		if idx == 0 {
			if opts.BotMirror {
				extWInfo = tech.ExtWidthInfo(ps.botExt, ps.botExt, ignoreBot)
				ycur, _, err = placeMirror(tech, ps.botExt, ycur, ignoreBot)
				if err != nil {
					return nil, nil, err
				}
			} else {
				extWInfo = mos.NewExtWidthInfo(nil, 0, 1)
			}
		} else {
			extWInfo = tech.ExtWidthInfo(*prevExt, ps.botExt, ignoreBot)
			curBotExtH := (ycur - ytopPrev) / blkH
			extH, err := extWInfo.NextWidth(prevExtH+curBotExtH, false)
			if err != nil {
				return nil, nil, err
			}
			ycur = ytopPrev + blkH*(extH-prevExtH)
		}

		alignBot := func() error {
			pcons := make(map[string]int, len(ps.botConnY))
			for wt, cy := range ps.botConnY {
				pcons[wt.String()] = ycur + cy.Hi
			}
			return botWG.AlignWires(hmLayer, tm, ytopPrev, ycur+blkHgt,
				placeFun(connLayer, grid, pcons, track.RoundLessEq))
		}
		if err := alignBot(); err != nil {
			return nil, nil, err
		}

		if y := botWG.SharedConnY(hmLayer, grid, false); y > ytopConnPrev {
			ytopConnPrev = y
		}

		// push the block up until the vertical wires from below keep
		// line-end spacing from the ones reaching down from this row
		if ytopConnPrev > coordMin && !ignoreBot {
			dy, err := calcVMDy(grid, ps, botWG, connLayer, ycur, ytopConnPrev, connSpLE)
			if err != nil {
				return nil, nil, err
			}
			for cnt := 0; dy > 0; cnt++ {
				if cnt >= maxPlaceIter {
					return nil, nil, errors.New(errors.ErrCodeIterationBudget,
						"cannot satisfy line-end spacing on row %d after %d iterations",
						idx, maxPlaceIter)
				}
				ycur = divCeil(ycur+dy, blkH) * blkH
				curBotExtH := (ycur - ytopPrev) / blkH
				extH, err := extWInfo.NextWidth(prevExtH+curBotExtH, false)
				if err != nil {
					return nil, nil, err
				}
				ycur = ytopPrev + blkH*(extH-prevExtH)
				if err := alignBot(); err != nil {
					return nil, nil, err
				}
				dy, err = calcVMDy(grid, ps, botWG, connLayer, ycur, ytopConnPrev, connSpLE)
				if err != nil {
					return nil, nil, err
				}
			}
		}

		connYBot := [2]int{coordMax, coordMin}
		for wt, cy := range ps.botConnY {
			if wt.IsPhysical() {
				if v := ycur + cy.Lo; v < connYBot[0] {
					connYBot[0] = v
				}
				if v := ycur + cy.Hi; v > connYBot[1] {
					connYBot[1] = v
				}
			}
		}
		bndBot := botWG.PlacementBounds(hmLayer, grid, true)
		connYBot[0], err = updateYConn(grid, ps.info, connLayer, ycur, bndBot, connYBot[0], false)
		if err != nil {
			return nil, nil, err
		}
		connYBot[1], err = updateYConn(grid, ps.info, connLayer, ycur, bndBot, connYBot[1], true)
		if err != nil {
			return nil, nil, err
		}
		if !botWG.Empty() {
			prevWG = botWG
		}

		var midLookup *wires.WireLookup
		if ps.spec.DoubleGate {
			connYMid := [2]int{coordMax, coordMin}
			midPCons := make(map[string]int, len(ps.midConnY))
			for wt, cy := range ps.midConnY {
				midPCons[wt.String()] = ycur + cy.Lo
				if wt.IsPhysical() {
					if v := ycur + cy.Lo; v < connYMid[0] {
						connYMid[0] = v
					}
					if v := ycur + cy.Hi; v > connYMid[1] {
						connYMid[1] = v
					}
				}
			}
			ytc := connYBot[1]
			if connYMid[1] > ytc {
				ytc = connYMid[1]
			}
			err = midWG.PlaceCompact(hmLayer, tm, wires.PlaceCompactOptions{
				PCons:    placeFun(connLayer, grid, midPCons, track.RoundGreaterEq),
				Prev:     prevWG,
				YTopConn: &ytc,
			})
			if err != nil {
				return nil, nil, err
			}
			if !midWG.Empty() {
				prevWG = midWG
			}
			midLookup = midWG.Lookup()
		}

		connYTop := [2]int{coordMax, coordMin}
		topPCons := make(map[string]int, len(ps.topConnY))
		for wt, cy := range ps.topConnY {
			topPCons[wt.String()] = ycur + cy.Lo
			if wt.IsPhysical() {
				if v := ycur + cy.Lo; v < connYTop[0] {
					connYTop[0] = v
				}
				if v := ycur + cy.Hi; v > connYTop[1] {
					connYTop[1] = v
				}
			}
		}
		ytc := connYBot[1]
		if connYTop[1] > ytc {
			ytc = connYTop[1]
		}
		topOpts := wires.PlaceCompactOptions{
			PCons:    placeFun(connLayer, grid, topPCons, track.RoundGreaterEq),
			Prev:     prevWG,
			YTopConn: &ytc,
		}
		// on a double-gate row the top side is the second gate, placed
		// like the middle wires without the mirror self-separation
		if !ps.spec.DoubleGate {
			topOpts.TopMirror = opts.TopMirror && isTopRow
		}
		err = topWG.PlaceCompact(hmLayer, tm, topOpts)
		if err != nil {
			return nil, nil, err
		}
		if ps.info.RowType.IsSubstrate() && !ps.spec.DoubleGate {
			// substrate taps have no internal ordering; spread their wires
			// over the full row
			if err := topWG.AlignWires(hmLayer, tm, ytopPrev, ycur+blkHgt, nil); err != nil {
				return nil, nil, err
			}
		}
		bndTop := topWG.PlacementBounds(hmLayer, grid, true)
		connYTop[0], err = updateYConn(grid, ps.info, connLayer, ycur, bndTop, connYTop[0], false)
		if err != nil {
			return nil, nil, err
		}
		connYTop[1], err = updateYConn(grid, ps.info, connLayer, ycur, bndTop, connYTop[1], true)
		if err != nil {
			return nil, nil, err
		}

		ytopBlk := ycur + blkHgt
		ytop := ytopBlk
		if u := topWG.Upper(); u > ytop {
			ytop = u
		}
		ytop = ytopPrev + divCeil(ytop-ytopPrev, blkH)*blkH
		if isTopRow {
			if ytop < opts.TotHeightMin {
				ytop = opts.TotHeightMin
			}
			ytop = divCeil(ytop, totPitch) * totPitch
			if opts.TopMirror {
				ignoreTop := ps.spec.IgnoreTopVMSpLE()
				for cnt := 0; ; cnt++ {
					if cnt >= maxPlaceIter {
						return nil, nil, errors.New(errors.ErrCodeIterationBudget,
							"cannot quantize mirrored top extension after %d iterations", maxPlaceIter)
					}
					ytopDelta := ytop - ytopBlk
					newDelta, _, err := placeMirror(tech, ps.topExt, ytopDelta, ignoreTop)
					if err != nil {
						return nil, nil, err
					}
					if newDelta == ytopDelta {
						break
					}
					ytop += newDelta - ytopDelta
					ytop = divCeil(ytop, totPitch) * totPitch
				}
			}
		}
		curTopExtH := (ytop - ytopBlk) / blkH

		if err := topWG.SetUpper(hmLayer, tm, ytop); err != nil {
			return nil, nil, err
		}

		yConn := [2]int{connYBot[0], connYBot[1]}
		if connYTop[0] < yConn[0] {
			yConn[0] = connYTop[0]
		}
		if connYTop[1] > yConn[1] {
			yConn[1] = connYTop[1]
		}

		rows = append(rows, RowPlaceInfo{
			RowInfo:  ps.info,
			BotWires: botWG.Lookup(),
			TopWires: topWG.Lookup(),
			MidWires: midLookup,
			YB:       ytopPrev,
			YT:       ytop,
			YBBlk:    ycur,
			YTBlk:    ytopBlk,
			YConn:    yConn,
		})
		graphs = append(graphs, RowGraphs{Bot: botWG, Mid: midWG, Top: topWG})

		ytopPrev = ytop
		ytopConnPrev = yConn[1]
		ext := ps.topExt
		prevExt = &ext
		prevExtH = curTopExtH
		if !topWG.Empty() {
			prevWG = topWG
		}
	}
	return rows, graphs, nil
}

// rowPlaceSpecs caches the per-row technology queries PlaceRows needs.
type rowPlaceSpecs struct {
	spec     mos.RowSpec
	info     mos.RowInfo
	botConnY map[mos.WireType]mos.ConnY
	midConnY map[mos.WireType]mos.ConnY
	topConnY map[mos.WireType]mos.ConnY
	botExt   mos.RowExtInfo
	topExt   mos.RowExtInfo
}

func buildRowPlaceSpecs(tech mos.Tech, rowSpecs []mos.RowSpec,
	options mos.Params) ([]rowPlaceSpecs, error) {
	n := len(rowSpecs)
	out := make([]rowPlaceSpecs, 0, n)
	for i := range rowSpecs {
		spec := rowSpecs[i].Normalize()
		// adjacent row types size the boundary regions; edge rows see
		// themselves, as the mirror image across the array boundary
		botType := spec.MOSType
		if i > 0 {
			botType = rowSpecs[i-1].MOSType
		}
		topType := spec.MOSType
		if i < n-1 {
			topType = rowSpecs[i+1].MOSType
		}
		if spec.Flip {
			botType, topType = topType, botType
		}
		info, err := tech.RowInfo(spec, botType, topType, options)
		if err != nil {
			return nil, err
		}
		ps := rowPlaceSpecs{spec: spec, info: info}
		if ps.botConnY, err = connYTable(info, info.BotConnTypes()); err != nil {
			return nil, err
		}
		if ps.topConnY, err = connYTable(info, info.TopConnTypes()); err != nil {
			return nil, err
		}
		if spec.DoubleGate {
			midTypes, err := info.MidConnTypes()
			if err != nil {
				return nil, err
			}
			if ps.midConnY, err = connYTable(info, midTypes); err != nil {
				return nil, err
			}
		}
		ps.botExt, ps.topExt = info.BotExt, info.TopExt
		if spec.Flip {
			ps.botExt, ps.topExt = ps.topExt, ps.botExt
		}
		out = append(out, ps)
	}
	return out, nil
}

func connYTable(info mos.RowInfo, types []mos.WireType) (map[mos.WireType]mos.ConnY, error) {
	out := make(map[mos.WireType]mos.ConnY, len(types))
	for _, wt := range types {
		cy, err := info.GetConnY(wt)
		if err != nil {
			return nil, err
		}
		out[wt] = cy
	}
	return out, nil
}

// placeFun builds a placement constraint that pins wires of known types
// to the nearest track reachable by a via from the given connection
// coordinate, from below (RoundLessEq) or above (RoundGreaterEq).
func placeFun(vmLayer int, grid track.Grid, table map[string]int,
	mode track.RoundMode) wires.PlaceConstraint {
	sign := 1
	if mode == track.RoundLessEq {
		sign = -1
	}
	return func(ptype string, width int, idx track.HalfInt) track.HalfInt {
		y, ok := table[ptype]
		if !ok {
			return idx
		}
		vmExt := grid.ViaExtension(track.Lower, vmLayer, 1, width)
		return grid.FindNextTrack(vmLayer+1, y+sign*vmExt, width, true, mode)
	}
}

// placeMirror grows ycur until twice the corresponding extension height
// is legal, so the row and its mirror image share a legal extension.
// Returns the new coordinate and the half extension height.
func placeMirror(tech mos.Tech, ext mos.RowExtInfo, ycur int,
	ignoreVMSpLE bool) (int, int, error) {
	blkH := tech.BlkHPitch()
	ewi := tech.ExtWidthInfo(ext, ext, ignoreVMSpLE)
	extWCur := ycur / blkH
	extWTot, err := ewi.NextWidth(2*extWCur, true)
	if err != nil {
		return 0, 0, err
	}
	extW := extWTot / 2
	return ycur + (extW-extWCur)*blkH, extW, nil
}

// calcVMDy returns how far the device block must rise so the vertical
// wires reaching down from its bottom wires keep line-end spacing from
// the vertical wires coming up from below.
func calcVMDy(grid track.Grid, ps *rowPlaceSpecs, botWG *wires.WireGraph,
	vmLayer, ycur, ytopConnPrev, connSpLE int) (int, error) {
	hmLayer := vmLayer + 1
	ybotConn := coordMax
	for ptype, bnds := range botWG.PlacementBounds(hmLayer, grid, false) {
		wt, err := mos.ParseWireType(ptype)
		if err != nil {
			return 0, err
		}
		lo := bnds[0]
		vmExt := grid.ViaExtension(track.Lower, vmLayer, 1, lo.Width)
		yw, _ := grid.WireBounds(hmLayer, lo.Track, lo.Width)
		ybCur := yw - vmExt
		all, err := ps.info.GetAllConnY(wt)
		if err != nil {
			return 0, err
		}
		for _, cy := range all {
			connYT := ycur + cy.Hi
			wlen := grid.NextLength(vmLayer, 1, connYT-ybCur)
			if v := connYT - wlen; v < ybotConn {
				ybotConn = v
			}
			if v := ycur + cy.Lo; v < ybotConn {
				ybotConn = v
			}
		}
	}
	for wt, cy := range ps.botConnY {
		if wt.IsPhysical() {
			if v := ycur + cy.Lo; v < ybotConn {
				ybotConn = v
			}
		}
	}
	return ytopConnPrev + connSpLE - ybotConn, nil
}

// updateYConn extends a connection bound with the farthest point the
// vertical wires landing on the bound-table wires can reach.
func updateYConn(grid track.Grid, info mos.RowInfo, vmLayer, ycur int,
	bndTable map[string][2]wires.TrackInfo, yval int, isTop bool) (int, error) {
	hmLayer := vmLayer + 1
	sign := -1
	if isTop {
		sign = 1
	}
	for ptype, bnds := range bndTable {
		wt, err := mos.ParseWireType(ptype)
		if err != nil {
			return 0, err
		}
		b := bnds[0]
		if isTop {
			b = bnds[1]
		}
		vmExt := grid.ViaExtension(track.Lower, vmLayer, 1, b.Width)
		wLo, wHi := grid.WireBounds(hmLayer, b.Track, b.Width)
		yCur := wLo - vmExt
		if isTop {
			yCur = wHi + vmExt
		}
		all, err := info.GetAllConnY(wt)
		if err != nil {
			return 0, err
		}
		for _, cy := range all {
			connYCur := ycur + cy.Hi
			if isTop {
				connYCur = ycur + cy.Lo
			}
			d := yCur - connYCur
			if d < 0 {
				d = -d
			}
			wlen := grid.NextLength(vmLayer, 1, d)
			cand := connYCur + sign*wlen
			if isTop {
				if cand > yval {
					yval = cand
				}
			} else if cand < yval {
				yval = cand
			}
		}
	}
	return yval, nil
}

func divFloor(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func divCeil(a, b int) int { return -divFloor(-a, b) }
