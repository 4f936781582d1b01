package portalio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/turtacn/fieldplan/pkg/errors"
)

// looksLikeIITC reports whether data is an IITC bookmarks export (an object
// whose "portals" folders carry "bkmrk") or a draw-tools export (an array of
// shapes with a "type").
func looksLikeIITC(data []byte) bool {
	if !gjson.ValidBytes(data) {
		return false
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		return root.Get("0.type").Exists()
	}
	found := false
	portals := root.Get("portals")
	if portals.IsObject() {
		portals.ForEach(func(_, folder gjson.Result) bool {
			found = folder.Get("bkmrk").Exists()
			return !found
		})
	}
	return found
}

// parseIITC extracts portal positions from IITC bookmarks or draw-tools JSON.
// Bookmarks keep their labels; draw-tools vertices are unnamed.
func parseIITC(data []byte, res *Result) error {
	if !gjson.ValidBytes(data) {
		return errors.New(errors.ErrCodeInputParse, "invalid iitc json")
	}
	root := gjson.ParseBytes(data)
	entry := 0

	if root.IsArray() {
		root.ForEach(func(_, shape gjson.Result) bool {
			entry++
			parseShape(shape, entry, res)
			return true
		})
		return nil
	}

	portals := root.Get("portals")
	if !portals.IsObject() {
		return errors.New(errors.ErrCodeInputSchema, "iitc export has neither shapes nor bookmark folders")
	}
	portals.ForEach(func(_, folder gjson.Result) bool {
		folder.Get("bkmrk").ForEach(func(_, bm gjson.Result) bool {
			entry++
			lat, lon, ok := latLng(bm)
			if !ok {
				res.issue(entry, errors.ErrCodeInputParse, "bookmark without latlng")
				return true
			}
			res.add(Record{Name: bm.Get("label").String(), Lat: lat, Lon: lon, Line: entry})
			return true
		})
		return true
	})
	return nil
}

func parseShape(shape gjson.Result, entry int, res *Result) {
	switch t := shape.Get("type").String(); t {
	case "marker", "circle":
		lat, lon, ok := latLng(shape)
		if !ok {
			res.issue(entry, errors.ErrCodeInputParse, t+" without latLng")
			return
		}
		res.add(Record{Name: shape.Get("title").String(), Lat: lat, Lon: lon, Line: entry})
	case "polyline", "polygon":
		pts := shape.Get("latLngs")
		if !pts.IsArray() {
			res.issue(entry, errors.ErrCodeInputParse, t+" without latLngs")
			return
		}
		pts.ForEach(func(_, v gjson.Result) bool {
			lat, lon, ok := point(v)
			if !ok {
				res.issue(entry, errors.ErrCodeInputParse, fmt.Sprintf("%s vertex %s is not a position", t, v.Raw))
				return true
			}
			res.add(Record{Lat: lat, Lon: lon, Line: entry})
			return true
		})
	default:
		res.issue(entry, errors.ErrCodeInputFormat, fmt.Sprintf("unsupported shape type %q", t))
	}
}

// latLng reads the position of a bookmark or marker under "latLng" or
// "latlng".
func latLng(v gjson.Result) (lat, lon float64, ok bool) {
	p := v.Get("latLng")
	if !p.Exists() {
		p = v.Get("latlng")
	}
	return point(p)
}

// point accepts {"lat":..,"lng":..} or a "lat,lng" string.
func point(p gjson.Result) (lat, lon float64, ok bool) {
	switch {
	case p.IsObject():
		la, lo := p.Get("lat"), p.Get("lng")
		if la.Type != gjson.Number || lo.Type != gjson.Number {
			return 0, 0, false
		}
		return la.Float(), lo.Float(), true
	case p.Type == gjson.String:
		parts := strings.Split(p.String(), ",")
		if len(parts) != 2 {
			return 0, 0, false
		}
		la, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lo, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		return la, lo, err1 == nil && err2 == nil
	}
	return 0, 0, false
}

//Personal.AI order the ending
