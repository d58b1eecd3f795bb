package telegram

import (
	"errors"
	"strconv"
	"strings"
)

// Callback payloads stay short "verb|arg" strings on the wire (Telegram
// caps callback data at 64 bytes) but are parsed exactly once, here,
// into a typed action before any flow logic sees them.

type callbackAction interface {
	isCallbackAction()
}

type (
	// add flow
	addGenreToggle struct{ GenreID int64 }
	addGenresDone  struct{}

	// edit flow
	editGenreToggle struct{ GenreID int64 }
	editGenresDone  struct{}
	editGenresKeep  struct{}
	editGenresClose struct{}
	editPage        struct{ Page int }
	editPick        struct {
		MovieID int64
		Page    int
	}

	// delete flow
	deletePage struct{ Page int }
	deletePick struct {
		MovieID int64
		Page    int
	}
	deleteConfirm struct {
		MovieID int64
		Page    int
	}
	deleteDecline struct{ Page int }

	// admin listing
	adminMoviesPage   struct{ Page int }
	adminMoviesGenres struct{}
	adminMoviesByGenre struct {
		GenreID int64
		Page    int
	}

	// genre admin
	genreDelete struct{ GenreID int64 }

	// discovery
	genresList struct{}
	genrePage struct {
		GenreID int64
		Page    int
	}
	moviePick struct{ MovieID int64 }
	copyLink  struct{ MovieID int64 }
)

func (addGenreToggle) isCallbackAction()     {}
func (addGenresDone) isCallbackAction()      {}
func (editGenreToggle) isCallbackAction()    {}
func (editGenresDone) isCallbackAction()     {}
func (editGenresKeep) isCallbackAction()     {}
func (editGenresClose) isCallbackAction()    {}
func (editPage) isCallbackAction()           {}
func (editPick) isCallbackAction()           {}
func (deletePage) isCallbackAction()         {}
func (deletePick) isCallbackAction()         {}
func (deleteConfirm) isCallbackAction()      {}
func (deleteDecline) isCallbackAction()      {}
func (adminMoviesPage) isCallbackAction()    {}
func (adminMoviesGenres) isCallbackAction()  {}
func (adminMoviesByGenre) isCallbackAction() {}
func (genreDelete) isCallbackAction()        {}
func (genresList) isCallbackAction()         {}
func (genrePage) isCallbackAction()          {}
func (moviePick) isCallbackAction()          {}
func (copyLink) isCallbackAction()           {}

var errBadCallback = errors.New("malformed callback payload")

func parseCallback(data string) (callbackAction, error) {
	parts := strings.Split(data, "|")
	verb, args := parts[0], parts[1:]

	switch verb {
	case "addg":
		id, err := oneInt(args)
		return addGenreToggle{GenreID: id}, err
	case "addg_done":
		return addGenresDone{}, noArgs(args)
	case "editg":
		id, err := oneInt(args)
		return editGenreToggle{GenreID: id}, err
	case "editg_done":
		return editGenresDone{}, noArgs(args)
	case "editg_skip":
		return editGenresKeep{}, noArgs(args)
	case "editg_cancel":
		return editGenresClose{}, noArgs(args)
	case "editpage":
		page, err := oneInt(args)
		return editPage{Page: int(page)}, err
	case "editpick":
		id, page, err := twoInts(args)
		return editPick{MovieID: id, Page: int(page)}, err
	case "delpage":
		page, err := oneInt(args)
		return deletePage{Page: int(page)}, err
	case "delpick":
		id, page, err := twoInts(args)
		return deletePick{MovieID: id, Page: int(page)}, err
	case "delyes":
		id, page, err := twoInts(args)
		return deleteConfirm{MovieID: id, Page: int(page)}, err
	case "delno":
		page, err := oneInt(args)
		return deleteDecline{Page: int(page)}, err
	case "adm_movies":
		page, err := oneInt(args)
		return adminMoviesPage{Page: int(page)}, err
	case "adm_movies_genres":
		return adminMoviesGenres{}, noArgs(args)
	case "adm_movies_g":
		id, page, err := twoInts(args)
		return adminMoviesByGenre{GenreID: id, Page: int(page)}, err
	case "genre_del":
		id, err := oneInt(args)
		return genreDelete{GenreID: id}, err
	case "genres_list":
		return genresList{}, noArgs(args)
	case "genre":
		id, page, err := twoInts(args)
		return genrePage{GenreID: id, Page: int(page)}, err
	case "movie":
		id, err := oneInt(args)
		return moviePick{MovieID: id}, err
	case "copylink":
		id, err := oneInt(args)
		return copyLink{MovieID: id}, err
	default:
		return nil, errBadCallback
	}
}

func noArgs(args []string) error {
	if len(args) != 0 {
		return errBadCallback
	}
	return nil
}

func oneInt(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errBadCallback
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, errBadCallback
	}
	return v, nil
}

func twoInts(args []string) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, errBadCallback
	}
	a, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, errBadCallback
	}
	b, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, errBadCallback
	}
	return a, b, nil
}
