package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageModID(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"plain", "Workshop ID: 111<br>Mod ID: abc-1<br>", "abc-1", true},
		{"first wins", "Mod ID: first\nMod ID: second", "first", true},
		{"whitespace after colon", "Mod ID:\n\t Hydrocraft", "Hydrocraft", true},
		{"underscore and digits", "Mod ID: tsarslib_2", "tsarslib_2", true},
		{"stops at punctuation", "Mod ID: foo.bar", "foo", true},
		{"absent", "<html>nothing here</html>", "", false},
		{"lowercase label", "mod id: nope", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PageModID(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfoModID(t *testing.T) {
	info := "name=Better Sorting\nposter=poster.png\nid=BetterSorting\ndescription=Sorts things\n"
	got, ok := InfoModID(info)
	assert.True(t, ok)
	assert.Equal(t, "BetterSorting", got)

	_, ok = InfoModID("name=No Identifier\n")
	assert.False(t, ok)

	got, ok = InfoModID("id=mod-with-dash")
	assert.True(t, ok)
	assert.Equal(t, "mod", got)
}

func TestItemTitle(t *testing.T) {
	page := `<html><body>
<div class="workshopItemTitle">
  Brita's   Weapon Pack
</div>
<div class="workshopItemDescription">Mod ID: Brita</div>
</body></html>`
	assert.Equal(t, "Brita's Weapon Pack", ItemTitle(page))
	assert.Equal(t, "", ItemTitle("<html><body><p>none</p></body></html>"))
}

const collectionPage = `<html><body>
<div class="collectionChildren">
  <div class="collectionItem" id="sharedfile_111">
    <a href="https://steamcommunity.com/sharedfiles/filedetails/?id=111"><img class="workshopItemPreviewImage" src="a.png"></a>
    <div class="workshopItemTitle">First Mod</div>
  </div>
  <div class="collectionItem">
    <div class="collectionItemDetails">
      <a href="https://steamcommunity.com/sharedfiles/filedetails/?id=222&searchtext=">Second</a>
      <a href="https://steamcommunity.com/sharedfiles/filedetails/?id=999">ignored second link</a>
    </div>
  </div>
  <div class="collectionItem"><span>no link</span></div>
  <div class="collectionItem"><a href="https://steamcommunity.com/id/someone">author</a></div>
  <div class="collectionItem"><a href="https://steamcommunity.com/sharedfiles/filedetails/?id=111">dup</a></div>
</div>
<a href="https://steamcommunity.com/sharedfiles/filedetails/?id=555">outside any item</a>
</body></html>`

func TestCollectionItemIDs(t *testing.T) {
	assert.Equal(t, []string{"111", "222"}, CollectionItemIDs(collectionPage))
}

func TestCollectionItemIDsEmptyPage(t *testing.T) {
	assert.Empty(t, CollectionItemIDs("<html><p>Mod ID: x</p></html>"))
}
