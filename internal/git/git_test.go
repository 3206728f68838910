package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/player.gd b/player.gd
index 1111111..2222222 100644
--- a/player.gd
+++ b/player.gd
@@ -3,0 +4,2 @@ func _ready():
+	hit(1)
+	heal(2)
@@ -10 +12 @@ func hit(amount):
-	pass
+	return amount
diff --git a/README.md b/README.md
index 3333333..4444444 100644
--- a/README.md
+++ b/README.md
@@ -1 +1 @@
-old
+new
diff --git a/old.gd b/old.gd
deleted file mode 100644
index 5555555..0000000
--- a/old.gd
+++ /dev/null
@@ -1,3 +0,0 @@
-class_name Old
-func f():
-	pass
`

func TestParseDiff(t *testing.T) {
	changes, err := parseDiff([]byte(sampleDiff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, ChangedFile{Path: "player.gd", ChangedLines: []int{4, 5, 12}}, changes[0])
	assert.Equal(t, "old.gd", changes[1].Path)
	assert.True(t, changes[1].Deleted)
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
