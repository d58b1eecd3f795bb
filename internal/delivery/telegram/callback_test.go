package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data string
		want callbackAction
	}{
		{"addg|7", addGenreToggle{GenreID: 7}},
		{"addg_done", addGenresDone{}},
		{"editg|3", editGenreToggle{GenreID: 3}},
		{"editg_done", editGenresDone{}},
		{"editg_skip", editGenresKeep{}},
		{"editg_cancel", editGenresClose{}},
		{"editpage|2", editPage{Page: 2}},
		{"editpick|15|1", editPick{MovieID: 15, Page: 1}},
		{"delpage|0", deletePage{Page: 0}},
		{"delpick|9|2", deletePick{MovieID: 9, Page: 2}},
		{"delyes|9|2", deleteConfirm{MovieID: 9, Page: 2}},
		{"delno|2", deleteDecline{Page: 2}},
		{"adm_movies|1", adminMoviesPage{Page: 1}},
		{"adm_movies_genres", adminMoviesGenres{}},
		{"adm_movies_g|4|0", adminMoviesByGenre{GenreID: 4, Page: 0}},
		{"genre_del|6", genreDelete{GenreID: 6}},
		{"genres_list", genresList{}},
		{"genre|4|3", genrePage{GenreID: 4, Page: 3}},
		{"movie|21", moviePick{MovieID: 21}},
		{"copylink|21", copyLink{MovieID: 21}},
	}

	for _, tc := range cases {
		t.Run(tc.data, func(t *testing.T) {
			got, err := parseCallback(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCallbackMalformed(t *testing.T) {
	cases := []string{
		"",
		"unknown_verb",
		"addg",
		"addg|x",
		"addg|1|2",
		"addg_done|1",
		"editpick|5",
		"editpick|5|b",
		"delyes|1",
		"movie|",
		"genre|1",
	}

	for _, data := range cases {
		t.Run(data, func(t *testing.T) {
			_, err := parseCallback(data)
			assert.Error(t, err)
		})
	}
}
