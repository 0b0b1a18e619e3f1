package tui

// playlist is the queue of scene IDs given on the command line.
type playlist struct {
	ids   []string
	index int
}

func newPlaylist(ids []string) *playlist {
	return &playlist{ids: ids}
}

func (p *playlist) Current() (string, bool) {
	if p.index < 0 || p.index >= len(p.ids) {
		return "", false
	}
	return p.ids[p.index], true
}

// Next advances and returns the new current ID. At the end it stays put.
func (p *playlist) Next() (string, bool) {
	if p.index+1 >= len(p.ids) {
		return "", false
	}
	p.index++
	return p.ids[p.index], true
}

// Previous steps back and returns the new current ID. At the start it stays put.
func (p *playlist) Previous() (string, bool) {
	if p.index <= 0 {
		return "", false
	}
	p.index--
	return p.ids[p.index], true
}

func (p *playlist) Position() (int, int) {
	return p.index + 1, len(p.ids)
}
