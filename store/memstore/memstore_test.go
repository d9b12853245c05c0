package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/kevinaaaquil/intelliread/models"
	"github.com/kevinaaaquil/intelliread/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, paginate(all, 1, 2))
	assert.Equal(t, []int{5}, paginate(all, 3, 2))
	assert.Equal(t, []int{}, paginate(all, 4, 2))
	assert.Equal(t, []int{1, 2}, paginate(all, 0, 2), "page < 1 is the first page")
	assert.Equal(t, all, paginate(all, 2, 0))
}

func TestDuplicateEmail(t *testing.T) {
	s := New()
	_, err := s.CreateAccount(context.Background(), &models.Account{Email: "ada@x.com"})
	require.NoError(t, err)
	_, err = s.CreateAccount(context.Background(), &models.Account{Email: "ada@x.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestOTPIssueGuards(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.PutOTP(ctx, &models.OTPEntry{Email: "ada@x.com", IssueID: "a", Code: "1111"}))
	require.NoError(t, s.PutOTP(ctx, &models.OTPEntry{Email: "ada@x.com", IssueID: "b", Code: "2222"}))

	ok, err := s.MarkOTPVerified(ctx, "ada@x.com", "a")
	require.NoError(t, err)
	assert.False(t, ok, "a replaced issue cannot be verified")
	ok, err = s.DeleteOTP(ctx, "ada@x.com", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MarkOTPVerified(ctx, "ada@x.com", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	e, err := s.OTPByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.True(t, e.Verified)

	ok, err = s.DeleteOTP(ctx, "ada@x.com", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	e, err = s.OTPByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestBooksNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Old", "Middle", "New"} {
		_, err := s.InsertBook(ctx, &models.Book{
			Title:      title,
			Author:     "Someone",
			Status:     models.BookApproved,
			UploadedBy: owner,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	books, total, err := s.Books(ctx, models.BookQuery{Status: models.BookApproved, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, books, 2)
	assert.Equal(t, "New", books[0].Title)
	assert.Equal(t, "Middle", books[1].Title)

	books, _, err = s.Books(ctx, models.BookQuery{Search: "MIDD"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Middle", books[0].Title)
}
